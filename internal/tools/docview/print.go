package docview

import (
	"time"

	apperrors "github.com/louisbranch/typedview/internal/platform/errors"
	"github.com/louisbranch/typedview/internal/view"
)

// manifest prints every property of m and reports whether all of them
// could be read. Absent properties are not failures.
func (r *runner) manifest(m *Manifest) bool {
	ok := field(r, "name", m.Name)
	ok = field(r, "version", m.Version) && ok
	ok = field(r, "created", m.Created) && ok
	ok = field(r, "replicas", m.Replicas) && ok
	ok = field(r, "enabled", m.Enabled) && ok

	limits, err := m.Limits.Get()
	if err != nil {
		return r.fieldError("limits", err) && ok
	}
	ok = field(r, "limits.cpu", limits.CPU) && ok
	ok = field(r, "limits.memory", limits.Memory) && ok
	return ok
}

func field[T any](r *runner, key string, p view.Property[T]) bool {
	value, err := p.Get()
	if err != nil {
		return r.fieldError(key, err)
	}
	var shown any = value
	if t, isTime := shown.(time.Time); isTime {
		shown = t.Format(time.RFC3339)
	}
	r.line("docview.field", key, shown)
	return true
}

func (r *runner) fieldError(key string, err error) bool {
	if apperrors.CodeOf(err) == apperrors.CodePropertyNotFound {
		r.line("docview.field_missing", key)
		return true
	}
	r.line("docview.field_error", key, apperrors.LocalizedMessage(err, r.locale))
	return false
}
