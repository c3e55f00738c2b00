package raid

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/addisonbair/mdraid-sidecars/pkg/log"
	"github.com/addisonbair/mdraid-sidecars/pkg/status"
)

// NothingToCheck is the message reported when no array was checked.
const NothingToCheck = "No MD devices to check found."

// ArrayReader produces one array snapshot. *Reader implements it.
type ArrayReader interface {
	ReadArray(ctx context.Context, name string) (*ArrayState, error)
}

// Result is the outcome for one array.
type Result struct {
	Name     string          `json:"name"`
	Severity status.Severity `json:"severity"`
	Message  string          `json:"message"`
}

// Report is the aggregated outcome of a run.
type Report struct {
	Severity status.Severity `json:"severity"`
	Message  string          `json:"message"`
	Checked  int             `json:"checked"`
	Results  []Result        `json:"results"`

	OK       []string `json:"-"`
	Warning  []string `json:"-"`
	Critical []string `json:"-"`
}

// Run checks targets one after another in numeric order and folds the
// results into a single verdict.
//
// A read timeout becomes a critical result for that array and a vanished
// array is skipped. Any other failure aborts the run with a KindInternal
// *Error naming the array; no partial report is returned.
func Run(ctx context.Context, r ArrayReader, targets []string, spareOK bool) (*Report, error) {
	rep := &Report{Results: []Result{}}

	for _, name := range SortByNumber(targets) {
		st, err := r.ReadArray(ctx, name)
		if err != nil {
			switch {
			case errors.Is(err, ErrReadTimeout):
				msg := fmt.Sprintf("%s - %s", name, ErrReadTimeout)
				log.Warn().Err(err).Str("array", name).Msg("Timeout reading array")
				rep.add(Result{Name: name, Severity: status.Critical, Message: msg})
			case errors.Is(err, ErrTargetGone):
				log.Debug().Err(err).Str("array", name).Msg("MD device disappeared during check")
			default:
				return nil, fatal(name, err)
			}
			continue
		}

		sev, msg := Evaluate(st, spareOK)
		log.Debug().Str("array", name).Stringer("severity", sev).Msg(msg)
		rep.add(Result{Name: name, Severity: sev, Message: msg})
	}

	rep.finish()
	return rep, nil
}

func (rep *Report) add(res Result) {
	rep.Checked++
	rep.Results = append(rep.Results, res)
	switch res.Severity {
	case status.OK:
		rep.OK = append(rep.OK, res.Message)
	case status.Warning:
		rep.Warning = append(rep.Warning, res.Message)
	default:
		rep.Critical = append(rep.Critical, res.Message)
	}
}

func (rep *Report) finish() {
	if rep.Checked == 0 {
		rep.Severity = status.OK
		rep.Message = NothingToCheck
		return
	}

	for _, res := range rep.Results {
		rep.Severity = status.Max(rep.Severity, res.Severity)
	}

	var msgs []string
	if len(rep.Critical) > 0 || len(rep.Warning) > 0 {
		msgs = append(msgs, rep.Critical...)
		msgs = append(msgs, rep.Warning...)
	} else {
		msgs = rep.OK
	}
	rep.Message = strings.Join(msgs, "; ")

	log.Debug().
		Strs("critical", rep.Critical).
		Strs("warning", rep.Warning).
		Strs("ok", rep.OK).
		Msg("Aggregated array states")
}

func fatal(name string, err error) error {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindInternal {
		if e.Target == "" {
			e.Target = name
		}
		return e
	}
	return newError(KindInternal, name, "", err)
}
