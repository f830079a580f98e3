package compute

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/mhr3/sedge/regex"
	"github.com/mhr3/sedge/text"
)

// workgroupBackend executes kernels as workgroups of cooperating threads.
// It models the device contract exactly: a fixed buffer set per dispatch,
// slot allocation through two atomic counters, no ordering between
// threads, and a host post-pass that sorts and reconstructs line numbers.
type workgroupBackend struct {
	up bool
}

func newWorkgroupBackend() *workgroupBackend { return &workgroupBackend{} }

func (b *workgroupBackend) Init() error {
	b.up = true
	return nil
}

func (b *workgroupBackend) Teardown() { b.up = false }

func (b *workgroupBackend) Compile(spec PatternSpec) (Program, error) {
	if !b.up {
		return nil, ErrBackendUnavailable
	}
	switch {
	case spec.Literal != nil && spec.Regex != nil:
		return nil, fmt.Errorf("pattern spec carries both literal and regex")
	case spec.Literal != nil:
		return &literalProgram{pattern: spec.Literal, fold: spec.Fold}, nil
	case spec.Regex != nil:
		return &regexProgram{enc: spec.Regex}, nil
	}
	return nil, fmt.Errorf("empty pattern spec")
}

// dispatchBuffers is the per-call buffer set. Everything a kernel touches
// lives here; the buffers are released when the dispatch returns.
type dispatchBuffers struct {
	config  []byte // uniform, ConfigSize bytes
	textBuf []byte // input padded to a word boundary
	textLen int    // unpadded length
	results []byte // MaxResults fixed-size records
	written atomic.Uint32
	total   atomic.Uint32

	lineOff []uint32 // regex dispatch only
	lineLen []uint32
}

func newDispatchBuffers(buf *text.Buffer, cfg *Config) (*dispatchBuffers, error) {
	if buf.Len() > MaxDeviceBuffer {
		return nil, ErrTextTooLarge
	}
	padded := (buf.Len() + 3) &^ 3
	d := &dispatchBuffers{
		textBuf: make([]byte, padded),
		textLen: buf.Len(),
		results: make([]byte, MaxResults*RecordSize),
	}
	copy(d.textBuf, buf.Bytes())
	raw, err := cfg.MarshalBinary()
	if err != nil {
		return nil, err
	}
	d.config = raw
	return d, nil
}

// deviceConfig re-reads the uniform the way a kernel sees it. Keeping the
// round-trip in the dispatch path pins the wire layout.
func (d *dispatchBuffers) deviceConfig() (Config, error) {
	var c Config
	err := c.UnmarshalBinary(d.config)
	return c, err
}

// emit is the kernel-side match write: bump both counters, then claim the
// slot if the result buffer has room. Distinct threads always land on
// distinct slots because the counter hands out indices monotonically.
func (d *dispatchBuffers) emit(r Record, maxMatches uint32) {
	d.total.Add(1)
	w := d.written.Add(1)
	if w <= maxMatches {
		putRecord(d.results[(w-1)*RecordSize:], r)
	}
}

// literalProgram scans for a fixed string, one thread per chunk of
// candidate positions.
type literalProgram struct {
	pattern []byte
	fold    bool
}

func (p *literalProgram) FindMatches(buf *text.Buffer, cfg Config) (*ResultSet, error) {
	cfg.TextLen = uint32(buf.Len())
	cfg.PatternLen = uint32(len(p.pattern))
	if cfg.MaxMatches == 0 || cfg.MaxMatches > MaxResults {
		cfg.MaxMatches = MaxResults
	}
	if p.fold {
		cfg.Flags |= CfgFold
	}

	n := buf.Len()
	m := len(p.pattern)
	threads := n / chunkBytes
	if threads < 1 {
		threads = 1
	}
	chunk := (n + threads - 1) / threads
	cfg.NumThreads = uint32(threads)

	d, err := newDispatchBuffers(buf, &cfg)
	if err != nil {
		return nil, err
	}
	kcfg, err := d.deviceConfig()
	if err != nil {
		return nil, err
	}

	if m > 0 && n >= m {
		groups := (threads + literalWorkgroup - 1) / literalWorkgroup
		var wg sync.WaitGroup
		wg.Add(groups)
		for g := 0; g < groups; g++ {
			go func(group int) {
				defer wg.Done()
				lo := group * literalWorkgroup
				hi := lo + literalWorkgroup
				if hi > threads {
					hi = threads
				}
				for tid := lo; tid < hi; tid++ {
					literalThread(d, &kcfg, p.pattern, tid, chunk)
				}
			}(g)
		}
		wg.Wait() // fence
	}

	return p.postPass(d, &kcfg, buf)
}

// regexProgram runs the flattened NFA line-parallel, one thread per line.
type regexProgram struct {
	enc *regex.Encoding
}

func (p *regexProgram) FindMatches(buf *text.Buffer, cfg Config) (*ResultSet, error) {
	cfg.TextLen = uint32(buf.Len())
	cfg.Flags |= CfgLineMode
	if cfg.MaxMatches == 0 || cfg.MaxMatches > MaxResults {
		cfg.MaxMatches = MaxResults
	}

	nlines := buf.NumLines()
	cfg.NumThreads = uint32(nlines)

	d, err := newDispatchBuffers(buf, &cfg)
	if err != nil {
		return nil, err
	}
	d.lineOff = make([]uint32, nlines)
	d.lineLen = make([]uint32, nlines)
	for i := 0; i < nlines; i++ {
		ln := buf.Line(i)
		d.lineOff[i] = uint32(ln.Off)
		d.lineLen[i] = uint32(ln.Len)
	}
	kcfg, err := d.deviceConfig()
	if err != nil {
		return nil, err
	}

	if nlines > 0 {
		groups := (nlines + regexWorkgroup - 1) / regexWorkgroup
		var wg sync.WaitGroup
		wg.Add(groups)
		for g := 0; g < groups; g++ {
			go func(group int) {
				defer wg.Done()
				sim := newEncodedSim(p.enc)
				lo := group * regexWorkgroup
				hi := lo + regexWorkgroup
				if hi > nlines {
					hi = nlines
				}
				for tid := lo; tid < hi; tid++ {
					regexThread(d, &kcfg, sim, tid)
				}
			}(g)
		}
		wg.Wait() // fence
	}

	return p.postPass(d, &kcfg)
}
