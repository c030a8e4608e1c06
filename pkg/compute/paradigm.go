package compute

import (
	"fmt"
	"strings"

	"github.com/daviszhen/pipegen/pkg/util"
)

// Paradigm is chosen once per pipeline; the two are never mixed.
type Paradigm int

const (
	RowWise Paradigm = iota
	Vectorized
)

func (p Paradigm) String() string {
	switch p {
	case RowWise:
		return util.ParadigmRowWise
	case Vectorized:
		return util.ParadigmVectorized
	default:
		panic(fmt.Sprintf("usp %d", int(p)))
	}
}

func ParseParadigm(s string) (Paradigm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case util.ParadigmRowWise, "row", "row-wise":
		return RowWise, nil
	case util.ParadigmVectorized, "vector", "":
		return Vectorized, nil
	default:
		return 0, util.UnsupportedParadigmf("unknown paradigm %q", s)
	}
}
