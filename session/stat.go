package session

// Values are read and modified atomically, but not consistently,
// i.e. it is possible to read Recv.Count=1 Recv.Size=0 because Size has not updated yet.

import (
	"expvar"
	"fmt"
)

type SessionStat struct {
	Queries expvar.Int
	Records expvar.Int
	Skipped expvar.Int // end of stream at frame boundary
	Errors  expvar.Int
	Recv    CountSizePair // frames / bytes
	Send    CountSizePair
}

func (ss *SessionStat) Value() (r SessionStat) {
	r.Queries.Set(ss.Queries.Value())
	r.Records.Set(ss.Records.Value())
	r.Skipped.Set(ss.Skipped.Value())
	r.Errors.Set(ss.Errors.Value())
	r.Recv.Set(ss.Recv.Value())
	r.Send.Set(ss.Send.Value())
	return
}

func (ss *SessionStat) String() string {
	return fmt.Sprintf(`{"queries":%d,"records":%d,"skipped":%d,"errors":%d,"recv":%s,"send":%s}`,
		ss.Queries.Value(), ss.Records.Value(), ss.Skipped.Value(), ss.Errors.Value(),
		ss.Recv.String(), ss.Send.String())
}

type CountSizePair struct {
	Count expvar.Int
	Size  expvar.Int
}

func (csp *CountSizePair) Value() (r CountSizePair) {
	r.Count.Set(csp.Count.Value())
	r.Size.Set(csp.Size.Value())
	return
}

func (csp *CountSizePair) Set(new CountSizePair) {
	csp.Count.Set(new.Count.Value())
	csp.Size.Set(new.Size.Value())
}

func (csp *CountSizePair) String() string {
	return fmt.Sprintf(`{"count":%d,"size":%d}`, csp.Count.Value(), csp.Size.Value())
}
