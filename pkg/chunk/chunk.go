package chunk

import (
	"fmt"
	"strings"

	"github.com/daviszhen/pipegen/pkg/common"
	"github.com/daviszhen/pipegen/pkg/util"
)

// Chunk is a batch: one vector per column plus the row count.
type Chunk struct {
	Data  []*Vector
	Count int
	_Cap  int
}

func (c *Chunk) Init(types []common.LType, cap int) {
	c._Cap = cap
	c.Data = nil
	for _, lType := range types {
		c.Data = append(c.Data, NewFlatVector(lType, c._Cap))
	}
}

func (c *Chunk) Cap() int {
	return c._Cap
}

func (c *Chunk) SetCard(count int) {
	util.AssertFunc(count <= c._Cap)
	c.Count = count
}

func (c *Chunk) Card() int {
	return c.Count
}

func (c *Chunk) ColumnCount() int {
	if c == nil {
		return 0
	}
	return len(c.Data)
}

func (c *Chunk) Types() []common.LType {
	typs := make([]common.LType, 0, len(c.Data))
	for _, vec := range c.Data {
		typs = append(typs, vec.Typ())
	}
	return typs
}

func (c *Chunk) String() string {
	sb := strings.Builder{}
	for i := 0; i < c.Card(); i++ {
		for j := 0; j < c.ColumnCount(); j++ {
			if j > 0 {
				sb.WriteByte('\t')
			}
			sb.WriteString(fmt.Sprint(c.Data[j].GetValue(i)))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
