package access

import (
	"github.com/ethereum/go-ethereum/common"
)

// RoleSet is an insertion ordered set of principals. The zero address is
// never a member.
//
// RoleSet is not safe for concurrent use; it is owned by a passthrough which
// serializes access.
type RoleSet struct {
	members []common.Address
	index   map[common.Address]struct{}
}

// NewRoleSet builds a set from members, dropping duplicates and the zero
// address while keeping first-seen order.
func NewRoleSet(members []common.Address) *RoleSet {
	s := &RoleSet{
		members: make([]common.Address, 0, len(members)),
		index:   make(map[common.Address]struct{}, len(members)),
	}
	for _, m := range members {
		s.Add(m)
	}
	return s
}

// Add inserts member and reports whether it was new.
func (s *RoleSet) Add(member common.Address) bool {
	if member == (common.Address{}) {
		return false
	}
	if _, ok := s.index[member]; ok {
		return false
	}
	s.index[member] = struct{}{}
	s.members = append(s.members, member)
	return true
}

func (s *RoleSet) Contains(member common.Address) bool {
	_, ok := s.index[member]
	return ok
}

func (s *RoleSet) Len() int {
	return len(s.members)
}

// Members returns a copy of the members in insertion order.
func (s *RoleSet) Members() []common.Address {
	return append([]common.Address(nil), s.members...)
}
