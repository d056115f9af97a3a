package scoring

// BandRow maps an inclusive raw-score range to an IELTS band.
type BandRow struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Band float64 `json:"band"`
}

// BandForScore scans the table in order and returns the band of the first
// row covering correctCount. Counts outside every row yield band 0; gaps in
// a published table are not interpolated.
func BandForScore(correctCount int, table []BandRow) float64 {
	for _, row := range table {
		if correctCount >= row.Min && correctCount <= row.Max {
			return row.Band
		}
	}
	return 0
}
