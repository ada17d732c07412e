// Package writer routes records of any supported Go type to one growable
// dataset per type in a single HDF5 file.
//
//	w, err := writer.New("demo") // creates ./demo_DxData.h5
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//
//	w.Write(Point{X: 1, Y: 2})   // dataset "Point", length 1
//	writer.Append(w, Sample{})   // dataset "Sample", length 1
//
// The first record of a type resolves its descriptor and creates the
// dataset; later records of the same type reuse it. Two distinct Go types
// with the same dataset name cannot share a file: the second fails with
// ErrCollision.
//
// A Writer is safe for concurrent use. Records of one type written from one
// goroutine land in call order; records of one type written concurrently
// land in an unspecified order.
package writer
