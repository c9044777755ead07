package comm

import (
	"sort"
	"sync"
)

// DefaultChannels are the tokens used for solo exchanges.
const DefaultChannels = "ABCDEFGHIJKLMNOP"

// DefaultGroupChannel is the channel shared by volumetric group exchanges.
const DefaultGroupChannel byte = 'G'

// ChannelPool hands out channel tokens, lowest first.
type ChannelPool struct {
	size int
	free []byte
	lock sync.Mutex
}

// NewChannelPool creates a pool with all tokens free.
func NewChannelPool(tokens string) *ChannelPool {
	p := &ChannelPool{}
	for i := 0; i < len(tokens); i++ {
		p.insert(tokens[i])
	}
	p.size = len(p.free)
	return p
}

// Acquire borrows the lowest free channel.
func (p *ChannelPool) Acquire() (byte, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if len(p.free) == 0 {
		return 0, &ExhaustedError{Size: p.size}
	}
	ch := p.free[0]
	p.free = p.free[1:]
	return ch, nil
}

// Release returns a borrowed channel.
func (p *ChannelPool) Release(ch byte) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.insert(ch)
}

// Free returns a snapshot of free channels in allocation order.
func (p *ChannelPool) Free() []byte {
	p.lock.Lock()
	defer p.lock.Unlock()
	return append([]byte(nil), p.free...)
}

// Size returns the number of channels managed by the pool.
func (p *ChannelPool) Size() int {
	return p.size
}

func (p *ChannelPool) insert(ch byte) {
	n := sort.Search(len(p.free), func(i int) bool { return p.free[i] >= ch })
	if n < len(p.free) && p.free[n] == ch {
		return
	}
	p.free = append(p.free, 0)
	copy(p.free[n+1:], p.free[n:])
	p.free[n] = ch
}
