package models

// Detection represents a single classified animal in an image.
type Detection struct {
	Species        string  `json:"species"`
	ScientificName string  `json:"scientific_name"`
	CommonName     string  `json:"common_name"`
	Category       string  `json:"category"`
	Confidence     float64 `json:"confidence"`
	X1             int     `json:"bbox_x1"`
	Y1             int     `json:"bbox_y1"`
	X2             int     `json:"bbox_x2"`
	Y2             int     `json:"bbox_y2"`
}
