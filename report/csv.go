package report

import (
	"io"

	"github.com/go-gota/gota/dataframe"

	"github.com/sugarme/nuseg/metric"
	"github.com/sugarme/nuseg/train"
)

// WriteHistory writes one CSV row per epoch.
func WriteHistory(h train.History, w io.Writer) error {
	df := dataframe.LoadStructs([]train.Epoch(h))
	if df.Err != nil {
		return df.Err
	}
	return df.WriteCSV(w)
}

// WriteCurve writes threshold, precision and recall columns.
func WriteCurve(curve []metric.Point, w io.Writer) error {
	df := dataframe.LoadStructs(curve)
	if df.Err != nil {
		return df.Err
	}
	return df.WriteCSV(w)
}
