package session

import (
	"fmt"
	"strings"
)

// Operation identifies one of the remote operations.
type Operation uint8

const (
	OpAnalyze Operation = 1 << iota
	OpCoverLetter
	OpFindJobs
)

var operationNames = map[Operation]string{
	OpAnalyze:     "analyze",
	OpCoverLetter: "cover-letter",
	OpFindJobs:    "find-jobs",
}

func (o Operation) String() string {
	if name, ok := operationNames[o]; ok {
		return name
	}
	return fmt.Sprintf("operation(%d)", uint8(o))
}

// ParseOperation accepts the names returned by Operation.String.
func ParseOperation(name string) (Operation, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for op, opName := range operationNames {
		if opName == name {
			return op, nil
		}
	}
	return 0, fmt.Errorf("unknown operation %q", name)
}

// OperationSet selects which operations a session accepts.
type OperationSet uint8

const AllOperations = OperationSet(OpAnalyze | OpCoverLetter | OpFindJobs)

func NewOperationSet(ops ...Operation) OperationSet {
	var set OperationSet
	for _, op := range ops {
		set |= OperationSet(op)
	}
	return set
}

// ParseOperationSet builds a set from names. An empty list enables everything.
func ParseOperationSet(names []string) (OperationSet, error) {
	if len(names) == 0 {
		return AllOperations, nil
	}

	var set OperationSet
	for _, name := range names {
		op, err := ParseOperation(name)
		if err != nil {
			return 0, err
		}
		set |= OperationSet(op)
	}
	return set, nil
}

func (s OperationSet) Has(op Operation) bool {
	return s&OperationSet(op) != 0
}

// List returns the operations in the set in menu order.
func (s OperationSet) List() []Operation {
	ops := make([]Operation, 0, 3)
	for _, op := range []Operation{OpAnalyze, OpCoverLetter, OpFindJobs} {
		if s.Has(op) {
			ops = append(ops, op)
		}
	}
	return ops
}
