package trainer

import (
	"fmt"
	"log"
	"math"

	"github.com/grownet-ml/grownet/internal/network"
	"github.com/grownet-ml/grownet/internal/tensor"
)

// AlignWeights rescales the newest head's weight rows so their mean L2
// norm matches the mean over all prior heads' rows. Corrects the bias
// toward recently learned classes.
//
// Requires at least one previously trained task. A degenerate newest
// head (mean row norm zero) is left untouched with a warning.
func AlignWeights[B tensor.Backend](model *network.Ensemble[B]) error {
	n := model.NumHeads()
	if n < 2 {
		return fmt.Errorf("trainer: weight alignment needs a previously trained task, have %d head(s)", n)
	}

	var prevSum float64
	var prevRows int
	for i := 0; i < n-1; i++ {
		w := model.Head(i).Weight().Tensor()
		rows := w.Shape()[0]
		prevSum += rowNormSum(w.Data(), rows)
		prevRows += rows
	}
	meanPrev := prevSum / float64(prevRows)

	newest := model.Head(n - 1).Weight().Tensor()
	newRows := newest.Shape()[0]
	meanNew := rowNormSum(newest.Data(), newRows) / float64(newRows)
	if meanNew == 0 {
		log.Printf("weight alignment: newest head has zero mean row norm, skipping")
		return nil
	}

	gamma := float32(meanPrev / meanNew)
	data := newest.Data()
	for i := range data {
		data[i] *= gamma
	}
	log.Printf("weight alignment: rescaled %d rows by %.4f", newRows, gamma)
	return nil
}

// rowNormSum sums the L2 norms of the rows of a [rows, cols] matrix.
func rowNormSum(data []float32, rows int) float64 {
	cols := len(data) / rows
	var sum float64
	for r := 0; r < rows; r++ {
		var sq float64
		for _, v := range data[r*cols : (r+1)*cols] {
			sq += float64(v) * float64(v)
		}
		sum += math.Sqrt(sq)
	}
	return sum
}
