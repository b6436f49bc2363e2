package metrics

// Recorder is what the request path writes to: the bounded store that backs
// the dashboard, and the prometheus instruments when configured.
type Recorder struct {
	store       *Store
	instruments *Instruments
}

func NewRecorder(store *Store, instruments *Instruments) *Recorder {
	return &Recorder{
		store:       store,
		instruments: instruments,
	}
}

func (r *Recorder) RecordHTTP(m Record) {
	r.store.Record(m)
	if r.instruments != nil {
		r.instruments.observe(m)
	}
}

func (r *Recorder) Store() *Store {
	return r.store
}
