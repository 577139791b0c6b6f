package local

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/buger/jsonparser"
	"github.com/lalith-99/intakedesk/internal/models"
	"github.com/lalith-99/intakedesk/internal/repository"
	"go.uber.org/zap"
)

// Fields the store owns. Patches never touch them and create overwrites them.
const (
	fieldID      = "id"
	fieldCreated = "created_date"
	fieldUpdated = "updated_date"
)

// Repository is the document-backed repository.Repository for entity T.
//
// Keys T does not declare are kept in the stored record after the declared
// ones, so a field the typed model lags behind on survives updates and can
// still be filtered on. They are not visible on the typed values returned.
type Repository[T any] struct {
	store  *Store
	entity string
	known  map[string]bool
}

var (
	_ repository.FirmRepository         = (*Repository[models.Firm])(nil)
	_ repository.IntakeRepository       = (*Repository[models.Intake])(nil)
	_ repository.EmailHistoryRepository = (*Repository[models.EmailHistory])(nil)
	_ repository.MessageRepository      = (*Repository[models.Message])(nil)
)

func NewRepository[T any](store *Store, entity string) *Repository[T] {
	return &Repository[T]{store: store, entity: entity, known: jsonKeys(reflect.TypeFor[T]())}
}

type row struct {
	raw    json.RawMessage
	fields map[string]any
}

func (r *Repository[T]) Filter(ctx context.Context, where repository.Where, order string) ([]*T, error) {
	var matched []row
	err := r.store.read(ctx, func(doc document) error {
		for _, raw := range doc[r.entity] {
			var fields map[string]any
			if err := json.Unmarshal(raw, &fields); err != nil {
				return fmt.Errorf("decode %s: %w", r.entity, err)
			}
			if repository.Match(fields, where) {
				matched = append(matched, row{raw: raw, fields: fields})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	repository.Sort(matched, order, func(x row) map[string]any { return x.fields })

	out := make([]*T, 0, len(matched))
	for _, m := range matched {
		rec, err := r.decode(m.raw)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *Repository[T]) Get(ctx context.Context, id string) (*T, error) {
	var found json.RawMessage
	err := r.store.read(ctx, func(doc document) error {
		if i := indexOf(doc[r.entity], id); i >= 0 {
			found = doc[r.entity][i]
		}
		return nil
	})
	if err != nil || found == nil {
		return nil, err
	}
	return r.decode(found)
}

func (r *Repository[T]) Create(ctx context.Context, rec *T) (*T, error) {
	fields, err := toFields(rec)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", r.entity, err)
	}
	return r.CreateFields(ctx, fields)
}

// CreateFields is Create for a record that arrived as a JSON object, keeping
// any keys T does not declare.
func (r *Repository[T]) CreateFields(ctx context.Context, fields map[string]json.RawMessage) (*T, error) {
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}
	var (
		out *T
		id  string
	)
	err := r.store.write(ctx, func(doc document) (bool, error) {
		coll := doc[r.entity]

		id = r.store.newID()
		for indexOf(coll, id) >= 0 {
			id = r.store.newID()
		}
		now := r.store.now().UTC()
		setField(fields, fieldID, id)
		setField(fields, fieldCreated, now)
		setField(fields, fieldUpdated, now)

		rec, raw, err := r.seal(fields)
		if err != nil {
			return false, err
		}
		out = rec
		doc[r.entity] = append([]json.RawMessage{raw}, coll...)
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	r.store.logger.Debug("record created", zap.String("entity", r.entity), zap.String("id", id))
	return out, nil
}

func (r *Repository[T]) Update(ctx context.Context, id string, patch repository.Patch) (*T, error) {
	var out *T
	err := r.store.write(ctx, func(doc document) (bool, error) {
		coll := doc[r.entity]
		i := indexOf(coll, id)
		if i < 0 {
			return false, fmt.Errorf("%s %s: %w", r.entity, id, repository.ErrNotFound)
		}

		var fields map[string]json.RawMessage
		if err := json.Unmarshal(coll[i], &fields); err != nil {
			return false, fmt.Errorf("decode %s: %w", r.entity, err)
		}
		for k, v := range patch {
			if k == fieldID || k == fieldCreated || k == fieldUpdated {
				continue
			}
			b, err := json.Marshal(v)
			if err != nil {
				return false, fmt.Errorf("encode patch field %s: %w", k, err)
			}
			fields[k] = b
		}
		setField(fields, fieldUpdated, r.nextUpdate(fields[fieldUpdated]))

		rec, raw, err := r.seal(fields)
		if err != nil {
			return false, err
		}
		out = rec
		coll[i] = raw
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository[T]) Delete(ctx context.Context, id string) error {
	return r.store.write(ctx, func(doc document) (bool, error) {
		coll := doc[r.entity]
		i := indexOf(coll, id)
		if i < 0 {
			return false, nil
		}
		doc[r.entity] = append(coll[:i:i], coll[i+1:]...)
		return true, nil
	})
}

// nextUpdate returns the current time, nudged forward when the clock has not
// moved past the previous updated_date so the timestamp strictly increases.
func (r *Repository[T]) nextUpdate(prevRaw json.RawMessage) time.Time {
	now := r.store.now().UTC()
	var prev time.Time
	if len(prevRaw) > 0 && json.Unmarshal(prevRaw, &prev) == nil && !now.After(prev) {
		now = prev.Add(time.Nanosecond)
	}
	return now
}

// seal turns merged fields into a typed, validated record and its canonical
// stored form: T's fields in declaration order, then undeclared keys sorted.
func (r *Repository[T]) seal(fields map[string]json.RawMessage) (*T, json.RawMessage, error) {
	merged, err := json.Marshal(fields)
	if err != nil {
		return nil, nil, fmt.Errorf("encode %s: %w", r.entity, err)
	}
	out := new(T)
	if err := json.Unmarshal(merged, out); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, nil, fmt.Errorf("%w: %s.%s: %v", models.ErrInvalid, r.entity, typeErr.Field, err)
		}
		return nil, nil, fmt.Errorf("decode %s: %w", r.entity, err)
	}
	if v, ok := any(out).(models.Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", r.entity, err)
		}
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return nil, nil, fmt.Errorf("encode %s: %w", r.entity, err)
	}
	return out, r.appendUnknown(raw, fields), nil
}

// appendUnknown splices the keys of fields that T does not declare onto the
// end of the encoded object.
func (r *Repository[T]) appendUnknown(raw json.RawMessage, fields map[string]json.RawMessage) json.RawMessage {
	var extra []string
	for k := range fields {
		if !r.known[k] {
			extra = append(extra, k)
		}
	}
	if len(extra) == 0 {
		return raw
	}
	slices.Sort(extra)

	var buf bytes.Buffer
	buf.Write(raw[:len(raw)-1])
	for i, k := range extra {
		if i > 0 || len(raw) > 2 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(k)
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(fields[k])
	}
	buf.WriteByte('}')
	return buf.Bytes()
}

// jsonKeys lists the JSON object keys a struct type encodes, following
// embedded structs the way encoding/json does.
func jsonKeys(t reflect.Type) map[string]bool {
	keys := map[string]bool{}
	if t.Kind() != reflect.Struct {
		return keys
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if f.Anonymous && name == "" && f.Type.Kind() == reflect.Struct {
			for k := range jsonKeys(f.Type) {
				keys[k] = true
			}
			continue
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		keys[name] = true
	}
	return keys
}

func (r *Repository[T]) decode(raw json.RawMessage) (*T, error) {
	out := new(T)
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.entity, err)
	}
	return out, nil
}

func toFields(v any) (map[string]json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if string(b) == "null" {
		return fields, nil
	}
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func setField(fields map[string]json.RawMessage, key string, v any) {
	// string and time.Time never fail to marshal
	b, _ := json.Marshal(v)
	fields[key] = b
}

// indexOf finds a record by id without decoding the whole record.
func indexOf(coll []json.RawMessage, id string) int {
	for i, raw := range coll {
		got, err := jsonparser.GetString(raw, fieldID)
		if err == nil && got == id {
			return i
		}
	}
	return -1
}
