package docstore

import (
	"encoding/json"
	"fmt"
)

type OpKind int

const (
	OpSet OpKind = iota
	OpDelete
)

type Op struct {
	Kind OpKind
	Path string
	Data []byte
}

// Batch collects writes that a Store applies atomically in Commit.
type Batch struct {
	ops []Op
}

func NewBatch() *Batch {
	return &Batch{}
}

func (b *Batch) Set(path string, data []byte) *Batch {
	b.ops = append(b.ops, Op{Kind: OpSet, Path: path, Data: data})
	return b
}

func (b *Batch) SetJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	b.Set(path, data)
	return nil
}

func (b *Batch) Delete(path string) *Batch {
	b.ops = append(b.ops, Op{Kind: OpDelete, Path: path})
	return b
}

func (b *Batch) Ops() []Op {
	return b.ops
}

func (b *Batch) Len() int {
	return len(b.ops)
}

// Validate checks every path in the batch before anything is written.
func (b *Batch) Validate() error {
	for _, op := range b.ops {
		if _, _, err := Split(op.Path); err != nil {
			return err
		}
	}

	return nil
}
