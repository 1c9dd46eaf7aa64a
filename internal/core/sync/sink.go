package sync

// MultiSink fans every event out to each sink in order.
type MultiSink []Sink

func (m MultiSink) EntityAdded(ev EntityEvent) {
	for _, s := range m {
		s.EntityAdded(ev)
	}
}

func (m MultiSink) EntityRemoved(ev EntityEvent) {
	for _, s := range m {
		s.EntityRemoved(ev)
	}
}

func (m MultiSink) ComponentAdded(ev ComponentEvent) {
	for _, s := range m {
		s.ComponentAdded(ev)
	}
}

func (m MultiSink) ComponentRemoved(ev ComponentEvent) {
	for _, s := range m {
		s.ComponentRemoved(ev)
	}
}

func (m MultiSink) ComponentSynced(ev ComponentEvent) {
	for _, s := range m {
		s.ComponentSynced(ev)
	}
}

// Op names the hook an event was delivered through.
type Op string

const (
	OpEntityAdded      Op = "entityAdded"
	OpEntityRemoved    Op = "entityRemoved"
	OpComponentAdded   Op = "componentAdded"
	OpComponentRemoved Op = "componentRemoved"
	OpComponentSynced  Op = "componentSynced"
)

// Record is one delivered event as captured by Recorder.
type Record struct {
	Op     Op
	Entity EntityEvent
	Comp   ComponentEvent
}

// Recorder is a Sink that keeps every event in delivery order.
type Recorder struct {
	Records []Record
}

func (r *Recorder) EntityAdded(ev EntityEvent) {
	r.Records = append(r.Records, Record{Op: OpEntityAdded, Entity: ev})
}

func (r *Recorder) EntityRemoved(ev EntityEvent) {
	r.Records = append(r.Records, Record{Op: OpEntityRemoved, Entity: ev})
}

func (r *Recorder) ComponentAdded(ev ComponentEvent) {
	r.Records = append(r.Records, Record{Op: OpComponentAdded, Comp: ev})
}

func (r *Recorder) ComponentRemoved(ev ComponentEvent) {
	r.Records = append(r.Records, Record{Op: OpComponentRemoved, Comp: ev})
}

func (r *Recorder) ComponentSynced(ev ComponentEvent) {
	r.Records = append(r.Records, Record{Op: OpComponentSynced, Comp: ev})
}

// Ops returns the delivered hooks in order.
func (r *Recorder) Ops() []Op {
	out := make([]Op, len(r.Records))
	for i, rec := range r.Records {
		out[i] = rec.Op
	}
	return out
}

func (r *Recorder) Reset() { r.Records = r.Records[:0] }
