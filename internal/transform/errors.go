package transform

import "errors"

var (
	ErrSourceLoad        = errors.New("transform: source could not be loaded")
	ErrInvalidCropRegion = errors.New("transform: invalid crop region")
	ErrEncoding          = errors.New("transform: encoding failed")
)
