package sequence

import (
	"fmt"
	"sync/atomic"
)

const productIDPrefix = "PR"

// Sequencer issues unique, strictly increasing identifiers for users,
// products and orders. Safe for concurrent use; two concurrent calls never
// return the same value. Gaps are allowed (an issued id may never be used),
// reuse is not.
type Sequencer struct {
	user    atomic.Int64
	product atomic.Int64
	order   atomic.Int64
}

func New() *Sequencer {
	return &Sequencer{}
}

func (s *Sequencer) NextUserID() int64 {
	return s.user.Add(1)
}

func (s *Sequencer) NextOrderID() int64 {
	return s.order.Add(1)
}

// NextProductID formats the next product counter as a zero-padded business
// key, e.g. PR004.
func (s *Sequencer) NextProductID() string {
	return fmt.Sprintf("%s%03d", productIDPrefix, s.product.Add(1))
}

// SeedUserID raises the user counter to at least floor, so ids issued after a
// restore resume above everything already persisted.
func (s *Sequencer) SeedUserID(floor int64) {
	raise(&s.user, floor)
}

func (s *Sequencer) SeedOrderID(floor int64) {
	raise(&s.order, floor)
}

// SeedProductSeq takes the numeric part of the highest persisted product id.
func (s *Sequencer) SeedProductSeq(floor int64) {
	raise(&s.product, floor)
}

func raise(c *atomic.Int64, floor int64) {
	for {
		cur := c.Load()
		if cur >= floor {
			return
		}
		if c.CompareAndSwap(cur, floor) {
			return
		}
	}
}
