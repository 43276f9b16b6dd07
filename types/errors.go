package types

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds, test with errors.Is
var (
	ErrConfiguration      = errors.New("configuration error")
	ErrTopology           = errors.New("topology error")
	ErrGeometryDegeneracy = errors.New("geometry degeneracy")
	ErrSingularSystem     = errors.New("singular system")
	ErrWeightSum          = errors.New("weight sum violation")
)

// MeshError carries the originating rank and the global ids of the offending entities
type MeshError struct {
	Kind    error
	Op      string
	Rank    int // -1 when raised before ranks exist
	Face    int // local face index, -1 when not face related
	CellIDs []int
	NodeIDs []int
	Msg     string
	Err     error
}

func (e *MeshError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if len(e.Op) != 0 {
		fmt.Fprintf(&b, " in %s", e.Op)
	}
	if e.Rank >= 0 {
		fmt.Fprintf(&b, " [rank %d]", e.Rank)
	}
	if e.Face >= 0 {
		fmt.Fprintf(&b, " face %d", e.Face)
	}
	if len(e.CellIDs) != 0 {
		fmt.Fprintf(&b, " cells %v", e.CellIDs)
	}
	if len(e.NodeIDs) != 0 {
		fmt.Fprintf(&b, " nodes %v", e.NodeIDs)
	}
	if len(e.Msg) != 0 {
		fmt.Fprintf(&b, ": %s", e.Msg)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *MeshError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// WithRank stamps the rank on errors raised by code that does not know it
func (e *MeshError) WithRank(rank int) *MeshError {
	e.Rank = rank
	return e
}

func NewConfigurationError(format string, args ...interface{}) *MeshError {
	return &MeshError{Kind: ErrConfiguration, Rank: -1, Face: -1, Msg: fmt.Sprintf(format, args...)}
}

func NewTopologyError(rank int, cellIDs, nodeIDs []int, format string, args ...interface{}) *MeshError {
	return &MeshError{Kind: ErrTopology, Rank: rank, Face: -1, CellIDs: cellIDs, NodeIDs: nodeIDs,
		Msg: fmt.Sprintf(format, args...)}
}

func NewGeometryDegeneracyError(rank, face int, format string, args ...interface{}) *MeshError {
	return &MeshError{Kind: ErrGeometryDegeneracy, Rank: rank, Face: face, Msg: fmt.Sprintf(format, args...)}
}

func NewSingularSystemError(format string, args ...interface{}) *MeshError {
	return &MeshError{Kind: ErrSingularSystem, Rank: -1, Face: -1, Msg: fmt.Sprintf(format, args...)}
}

func NewWeightSumError(rank, face int, sum float64) *MeshError {
	return &MeshError{Kind: ErrWeightSum, Rank: rank, Face: face, Msg: fmt.Sprintf("weights sum to %.15g", sum)}
}

// RankOf returns the rank stamped on a MeshError in the chain, or -1
func RankOf(err error) int {
	var me *MeshError
	if errors.As(err, &me) {
		return me.Rank
	}
	return -1
}
