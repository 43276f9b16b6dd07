package types

import (
	"strings"
)

type InterpolationMethod uint8

const (
	// Weighted tetrahedral/triangular linear interpolation with degeneracy classification
	WTLI InterpolationMethod = iota
	// Inverse distance weighting over the nearest cell centroids
	IDW
	// Two point split between a face's parent and neighbor
	Simple
)

var InterpolationNameMap = map[string]InterpolationMethod{
	"wtli":    WTLI,
	"idw":     IDW,
	"simple":  Simple,
	"default": WTLI,
}

func (m InterpolationMethod) String() string {
	return [...]string{"wtli", "idw", "simple"}[m]
}

func NewInterpolationMethod(label string) (m InterpolationMethod, err error) {
	var (
		ok bool
	)
	if len(label) == 0 {
		return WTLI, nil
	}
	if m, ok = InterpolationNameMap[strings.ToLower(strings.TrimSpace(label))]; !ok {
		err = NewConfigurationError("unknown interpolation method %q", label)
	}
	return
}

// Classification is the geometric degeneracy found for a face stencil
type Classification uint8

const (
	Point Classification = iota
	Line
	Tri
	Tetra
	Unclassified // methods that do not inspect stencil geometry
)

func (c Classification) String() string {
	return [...]string{"POINT", "LINE", "TRI", "TETRA", "UNCLASSIFIED"}[c]
}
