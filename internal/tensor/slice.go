// Package tensor projects weight tensors of rank 1, 2 and 4 into vectors and
// matrices for display.
//
// Conv weights are laid out [outChannels, inChannels, kernelHeight, kernelWidth]
// and fully connected weights [outFeatures, inFeatures], both row-major. The
// slicing functions never read outside the value buffer: the buffer length is
// checked against the shape before any index is computed.
//
// All functions are pure and return fresh slices.
package tensor

import "github.com/onnxscope/core/internal/models"

const (
	RankBias = 1
	RankFC   = 2
	RankConv = 4
)

// Projectable reports whether w has a rank with slicing semantics.
func Projectable(w models.WeightTensor) bool {
	return w.Rank() == RankFC || w.Rank() == RankConv
}

// OutDim returns the size of the output dimension of a conv or FC tensor.
func OutDim(w models.WeightTensor) (int, error) {
	if !Projectable(w) {
		return 0, &ShapeMismatchError{Op: "outdim", Shape: w.Shape, Details: "only rank 2 and rank 4 tensors have an output dimension"}
	}
	return w.Shape[0], nil
}

// SliceConv returns the kernels feeding output channel outChannel: one row per
// input channel, each row the kernel flattened in (h, w) order.
func SliceConv(w models.WeightTensor, outChannel int) ([][]float64, error) {
	if err := checkRank("conv", w, RankConv); err != nil {
		return nil, err
	}

	outC, inC, kh, kw := w.Shape[0], w.Shape[1], w.Shape[2], w.Shape[3]
	if outChannel < 0 || outChannel >= outC {
		return nil, &IndexError{Op: "conv", Index: outChannel, Bound: outC}
	}

	kernelSize := kh * kw
	base := outChannel * inC * kernelSize

	matrix := make([][]float64, inC)
	for i := range inC {
		row := make([]float64, kernelSize)
		for h := range kh {
			for x := range kw {
				row[h*kw+x] = w.Values[base+i*kernelSize+h*kw+x]
			}
		}
		matrix[i] = row
	}

	return matrix, nil
}

// SliceFC returns the weight row of output feature outFeature.
func SliceFC(w models.WeightTensor, outFeature int) ([]float64, error) {
	if err := checkRank("fc", w, RankFC); err != nil {
		return nil, err
	}

	outF, inF := w.Shape[0], w.Shape[1]
	if outFeature < 0 || outFeature >= outF {
		return nil, &IndexError{Op: "fc", Index: outFeature, Bound: outF}
	}

	row := make([]float64, inF)
	copy(row, w.Values[outFeature*inF:(outFeature+1)*inF])

	return row, nil
}

// BiasVector returns the values of a rank-1 tensor.
func BiasVector(w models.WeightTensor) ([]float64, error) {
	if err := checkRank("bias", w, RankBias); err != nil {
		return nil, err
	}

	out := make([]float64, len(w.Values))
	copy(out, w.Values)

	return out, nil
}

func checkRank(op string, w models.WeightTensor, want int) error {
	if w.Rank() != want {
		return &ShapeMismatchError{Op: op, Shape: w.Shape, Want: want}
	}

	if err := w.Validate(); err != nil {
		return &ShapeMismatchError{Op: op, Shape: w.Shape, Details: err.Error()}
	}

	return nil
}
