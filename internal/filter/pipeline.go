package filter

import (
	"fmt"

	"github.com/robert-malhotra/h5view/internal/message"
)

type stage struct {
	id    uint16
	index int // position in the stored pipeline, for the filter mask
	f     Filter
}

// Pipeline decodes chunks written through a filter pipeline message.
type Pipeline struct {
	stages []stage
}

// NewPipeline builds a pipeline for fp, which may be nil.
func NewPipeline(fp *message.FilterPipeline) (*Pipeline, error) {
	p := &Pipeline{}
	if fp == nil {
		return p, nil
	}
	for i, info := range fp.Filters {
		f, err := New(info)
		if err != nil {
			return nil, err
		}
		if f != nil {
			p.stages = append(p.stages, stage{id: info.ID, index: i, f: f})
		}
	}
	return p, nil
}

// Empty reports whether the pipeline leaves data unchanged.
func (p *Pipeline) Empty() bool { return len(p.stages) == 0 }

// Decode undoes the pipeline on data. Bit i of mask marks stage i as
// skipped when the chunk was written.
func (p *Pipeline) Decode(data []byte, mask uint32) ([]byte, error) {
	for i := len(p.stages) - 1; i >= 0; i-- {
		s := p.stages[i]
		if s.index < 32 && mask&(1<<s.index) != 0 {
			continue
		}
		out, err := s.f.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", Name(s.id), err)
		}
		data = out
	}
	return data, nil
}
