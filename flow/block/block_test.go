package block_test

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-flow/flow/block"
	"github.com/cwbudde/algo-flow/flow/pmt"
	"github.com/cwbudde/algo-flow/flow/stream"
)

// stub is a minimal worker with a pluggable work function.
type stub struct {
	*block.Base
	work func(in []block.Reader, out []block.Writer) (int, error)
}

func (s *stub) Work(in []block.Reader, out []block.Writer) (int, error) {
	if s.work == nil {
		return 0, nil
	}
	return s.work(in, out)
}

func newStub(t *testing.T, inPorts, outPorts int, opts ...block.Option) *stub {
	t.Helper()
	b, err := block.New("stub", block.Sig(inPorts, 8), block.Sig(outPorts, 8), opts...)
	if err != nil {
		t.Fatal(err)
	}
	return &stub{Base: b}
}

func inViews(items ...int) []block.Reader {
	out := make([]block.Reader, len(items))
	for i, n := range items {
		out[i] = block.NewReader(make([]byte, n*8), 8)
	}
	return out
}

func outViews(items ...int) []block.Writer {
	out := make([]block.Writer, len(items))
	for i, n := range items {
		out[i] = block.NewWriter(make([]byte, n*8), 8)
	}
	return out
}

func mustStart(t *testing.T, w block.Worker) {
	t.Helper()
	if err := block.Start(w); err != nil {
		t.Fatal(err)
	}
}

// --- construction and validation ---

func TestNewValidation(t *testing.T) {
	cases := []struct {
		name string
		in   block.Signature
		out  block.Signature
		opts []block.Option
	}{
		{"empty name handled separately", block.SigNone(), block.SigNone(), nil},
		{"zero item size", block.Sig(1, 0), block.SigNone(), nil},
		{"negative history", block.SigNone(), block.Sig(1, 8), []block.Option{block.WithHistory(-1)}},
		{"zero output multiple", block.SigNone(), block.Sig(1, 8), []block.Option{block.WithOutputMultiple(0)}},
		{"negative rate", block.SigNone(), block.Sig(1, 8), []block.Option{block.WithRelativeRate(-2)}},
	}

	for _, tc := range cases[1:] {
		t.Run(tc.name, func(t *testing.T) {
			_, err := block.New("x", tc.in, tc.out, tc.opts...)
			if !errors.Is(err, block.ErrContract) {
				t.Fatalf("expected contract violation, got %v", err)
			}
		})
	}

	if _, err := block.New("", block.SigNone(), block.Sig(1, 8)); err == nil {
		t.Fatal("expected error for empty name")
	}
}

func TestNewDefaults(t *testing.T) {
	b, err := block.New("b", block.Sig(1, 8), block.Sig(1, 8))
	if err != nil {
		t.Fatal(err)
	}

	if b.History() != 1 {
		t.Fatalf("history: got %d want 1", b.History())
	}
	if b.OutputMultiple() != 1 {
		t.Fatalf("output multiple: got %d want 1", b.OutputMultiple())
	}
	if b.RelativeRate() != 1 {
		t.Fatalf("relative rate: got %g want 1", b.RelativeRate())
	}
	if b.Auto() {
		t.Fatal("auto mode must default off")
	}
	if b.TagPropagation() != block.PolicyAllToAll {
		t.Fatalf("policy: got %v", b.TagPropagation())
	}
	if b.UniqueID() == "" {
		t.Fatal("unique id must be set")
	}
}

func TestUniqueIDsDiffer(t *testing.T) {
	a, _ := block.New("a", block.SigNone(), block.Sig(1, 8))
	b, _ := block.New("a", block.SigNone(), block.Sig(1, 8))
	if a.UniqueID() == b.UniqueID() {
		t.Fatal("two blocks share a unique id")
	}
}

func TestSettersRejectedAfterStart(t *testing.T) {
	s := newStub(t, 1, 1)
	mustStart(t, s)

	if err := s.SetHistory(4); !errors.Is(err, block.ErrContract) {
		t.Fatalf("SetHistory after start: got %v", err)
	}
	if err := s.SetOutputMultiple(2); !errors.Is(err, block.ErrContract) {
		t.Fatalf("SetOutputMultiple after start: got %v", err)
	}

	// The relative rate stays mutable so a running block can retune.
	if err := s.SetRelativeRate(2); err != nil {
		t.Fatalf("SetRelativeRate after start: got %v", err)
	}
	if got := s.RelativeRate(); got != 2 {
		t.Fatalf("relative rate: got %v want 2", got)
	}
}

// --- accounting ---

func TestConsumeAdvancesCountersAdditively(t *testing.T) {
	s := newStub(t, 2, 0)
	mustStart(t, s)

	step := func(n0, n1 int) {
		s.work = func(in []block.Reader, _ []block.Writer) (int, error) {
			if err := s.Consume(0, n0); err != nil {
				return 0, err
			}
			if err := s.Consume(1, n1); err != nil {
				return 0, err
			}
			return 0, nil
		}
		if _, err := block.Invoke(s, inViews(16, 16), nil); err != nil {
			t.Fatal(err)
		}
	}

	step(3, 5)
	if s.NItemsRead(0) != 3 || s.NItemsRead(1) != 5 {
		t.Fatalf("counters: got %d/%d want 3/5", s.NItemsRead(0), s.NItemsRead(1))
	}

	step(2, 0)
	if s.NItemsRead(0) != 5 || s.NItemsRead(1) != 5 {
		t.Fatalf("counters: got %d/%d want 5/5", s.NItemsRead(0), s.NItemsRead(1))
	}
}

func TestConsumeBeyondWindowIsContractViolation(t *testing.T) {
	s := newStub(t, 1, 0)
	mustStart(t, s)

	s.work = func(in []block.Reader, _ []block.Writer) (int, error) {
		return 0, s.Consume(0, in[0].Len()+1)
	}
	_, err := block.Invoke(s, inViews(8), nil)
	if !errors.Is(err, block.ErrContract) {
		t.Fatalf("expected contract violation, got %v", err)
	}
}

func TestIgnoredViolationStillSurfaces(t *testing.T) {
	s := newStub(t, 1, 0)
	mustStart(t, s)

	s.work = func(in []block.Reader, _ []block.Writer) (int, error) {
		_ = s.Consume(0, in[0].Len()+1) // block swallows the error
		return 0, nil
	}
	_, err := block.Invoke(s, inViews(8), nil)
	if !errors.Is(err, block.ErrContract) {
		t.Fatalf("expected contract violation, got %v", err)
	}
}

func TestProduceBeyondWindowIsContractViolation(t *testing.T) {
	s := newStub(t, 0, 1)
	mustStart(t, s)

	s.work = func(_ []block.Reader, out []block.Writer) (int, error) {
		return 0, s.Produce(0, out[0].Len()+1)
	}
	_, err := block.Invoke(s, nil, outViews(8))
	if !errors.Is(err, block.ErrContract) {
		t.Fatalf("expected contract violation, got %v", err)
	}
}

func TestConsumeEach(t *testing.T) {
	s := newStub(t, 3, 0)
	mustStart(t, s)

	s.work = func(_ []block.Reader, _ []block.Writer) (int, error) {
		return 0, s.ConsumeEach(4)
	}
	if _, err := block.Invoke(s, inViews(8, 8, 8), nil); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if s.NItemsRead(i) != 4 {
			t.Fatalf("input %d: got %d want 4", i, s.NItemsRead(i))
		}
	}
}

func TestAutoModeAccounting(t *testing.T) {
	// relative_rate = 1.0; producing 5 items advances both counters by 5
	// without explicit consume/produce calls.
	s := newStub(t, 1, 1, block.WithAuto(true))
	mustStart(t, s)

	s.work = func(_ []block.Reader, _ []block.Writer) (int, error) { return 5, nil }
	n, err := block.Invoke(s, inViews(8), outViews(8))
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Fatalf("work return: got %d want 5", n)
	}
	if s.NItemsWritten(0) != 5 {
		t.Fatalf("nitems_written: got %d want 5", s.NItemsWritten(0))
	}
	if s.NItemsRead(0) != 5 {
		t.Fatalf("nitems_read: got %d want 5", s.NItemsRead(0))
	}
}

func TestAutoModeDecimation(t *testing.T) {
	s := newStub(t, 1, 1, block.WithAuto(true), block.WithRelativeRate(0.5))
	mustStart(t, s)

	s.work = func(_ []block.Reader, _ []block.Writer) (int, error) { return 4, nil }
	if _, err := block.Invoke(s, inViews(8), outViews(8)); err != nil {
		t.Fatal(err)
	}
	if s.NItemsRead(0) != 8 {
		t.Fatalf("nitems_read: got %d want 8", s.NItemsRead(0))
	}
	if s.NItemsWritten(0) != 4 {
		t.Fatalf("nitems_written: got %d want 4", s.NItemsWritten(0))
	}
}

// --- forecast ---

func TestDefaultForecast(t *testing.T) {
	s := newStub(t, 2, 1,
		block.WithRelativeRate(2),
		block.WithHistory(4))

	nreq := make([]int, 2)
	s.Forecast(10, nreq)
	for i, got := range nreq {
		if got != 8 { // ceil(10/2) + 4 - 1
			t.Fatalf("input %d: got %d want 8", i, got)
		}
	}
}

func TestForecastMonotonicity(t *testing.T) {
	s := newStub(t, 1, 1, block.WithRelativeRate(1.7), block.WithHistory(3))

	nreq := make([]int, 1)
	prev := -1
	for nout := 0; nout <= 256; nout++ {
		s.Forecast(nout, nreq)
		if nreq[0] < prev {
			t.Fatalf("forecast decreased at nout=%d: %d < %d", nout, nreq[0], prev)
		}
		prev = nreq[0]
	}
}

// --- lifecycle ---

func TestLifecycleOrder(t *testing.T) {
	s := newStub(t, 0, 1)

	if _, err := block.Invoke(s, nil, outViews(4)); !errors.Is(err, block.ErrContract) {
		t.Fatalf("work before start: got %v", err)
	}

	mustStart(t, s)
	if err := block.Start(s); !errors.Is(err, block.ErrContract) {
		t.Fatalf("double start: got %v", err)
	}

	if _, err := block.Invoke(s, nil, outViews(4)); err != nil {
		t.Fatal(err)
	}

	if err := block.Stop(s); err != nil {
		t.Fatal(err)
	}
	if _, err := block.Invoke(s, nil, outViews(4)); !errors.Is(err, block.ErrContract) {
		t.Fatalf("work after stop: got %v", err)
	}
	if err := block.Stop(s); !errors.Is(err, block.ErrContract) {
		t.Fatalf("double stop: got %v", err)
	}
}

type failingStart struct{ *stub }

func (f *failingStart) Start() error { return errors.New("no hardware") }

func TestStartFailureLeavesConstructed(t *testing.T) {
	f := &failingStart{stub: newStub(t, 0, 1)}

	if err := block.Start(f); err == nil {
		t.Fatal("expected start failure")
	}
	if f.State() != block.StateConstructed {
		t.Fatalf("state: got %v want constructed", f.State())
	}
}

func TestDoneDistinctFromZero(t *testing.T) {
	s := newStub(t, 0, 1)
	mustStart(t, s)

	s.work = func(_ []block.Reader, _ []block.Writer) (int, error) { return 0, nil }
	if n, err := block.Invoke(s, nil, outViews(4)); err != nil || n != 0 {
		t.Fatalf("zero return: got %d, %v", n, err)
	}

	s.work = func(_ []block.Reader, _ []block.Writer) (int, error) { return block.Done, nil }
	if n, err := block.Invoke(s, nil, outViews(4)); err != nil || n != block.Done {
		t.Fatalf("done return: got %d, %v", n, err)
	}

	s.work = func(_ []block.Reader, _ []block.Writer) (int, error) { return -7, nil }
	if _, err := block.Invoke(s, nil, outViews(4)); !errors.Is(err, block.ErrContract) {
		t.Fatalf("invalid negative return: got %v", err)
	}
}

func TestOutputMultipleEnforced(t *testing.T) {
	s := newStub(t, 0, 1, block.WithOutputMultiple(4))
	mustStart(t, s)

	if _, err := block.Invoke(s, nil, outViews(6)); !errors.Is(err, block.ErrContract) {
		t.Fatalf("window of 6 with multiple 4: got %v", err)
	}
	if _, err := block.Invoke(s, nil, outViews(8)); err != nil {
		t.Fatal(err)
	}
}

// --- tags ---

func TestTagsRoundTripThroughAttachedStore(t *testing.T) {
	src := newStub(t, 0, 1)
	dst := newStub(t, 1, 0)

	st := stream.NewTagStore()
	if err := src.AttachOutputTags(0, st); err != nil {
		t.Fatal(err)
	}
	if err := dst.AttachInputTags(0, st); err != nil {
		t.Fatal(err)
	}

	if err := src.AddItemTagKV(0, 17, pmt.Symbol("freq"), pmt.Real(1e6)); err != nil {
		t.Fatal(err)
	}

	got, err := dst.TagsInRange(nil, 0, 17, 18)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Offset != 17 {
		t.Fatalf("range [17,18): got %v", got)
	}
	if !got[0].SrcID.Equal(block.SrcUnspecified) {
		t.Fatalf("srcid: got %v", got[0].SrcID)
	}

	// Half-open: offset 17 is excluded from [18, 19) and from [16, 17).
	if got, _ := dst.TagsInRange(nil, 0, 18, 19); len(got) != 0 {
		t.Fatalf("range [18,19): got %v", got)
	}
	if got, _ := dst.TagsInRange(nil, 0, 16, 17); len(got) != 0 {
		t.Fatalf("range [16,17): got %v", got)
	}
}

func TestTagsKeyFilter(t *testing.T) {
	src := newStub(t, 0, 1)
	dst := newStub(t, 1, 0)
	st := stream.NewTagStore()
	_ = src.AttachOutputTags(0, st)
	_ = dst.AttachInputTags(0, st)

	_ = src.AddItemTagKV(0, 5, pmt.Symbol("freq"), pmt.Real(1))
	_ = src.AddItemTagKV(0, 5, pmt.Symbol("gain"), pmt.Real(2))

	got, err := dst.TagsInRangeKey(nil, 0, 0, 10, pmt.Symbol("gain"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || !got[0].Key.Equal(pmt.Symbol("gain")) {
		t.Fatalf("key filter: got %v", got)
	}
}

func TestUnattachedTagPorts(t *testing.T) {
	s := newStub(t, 1, 1)

	if err := s.AddItemTagKV(0, 0, pmt.Symbol("k"), pmt.Nil()); err != nil {
		t.Fatalf("add on unattached output: %v", err)
	}
	got, err := s.TagsInRange(nil, 0, 0, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("unattached input returned tags: %v", got)
	}

	if err := s.AddItemTagKV(2, 0, pmt.Symbol("k"), pmt.Nil()); !errors.Is(err, block.ErrContract) {
		t.Fatalf("out-of-range port: got %v", err)
	}
}
