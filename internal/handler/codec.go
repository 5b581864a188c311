package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/ggshop/internal/domain/validation"
)

// encoder writes the fields of one JSON object.
type encoder struct {
	*jx.Encoder
}

func (e *encoder) strField(name, v string) {
	e.FieldStart(name)
	e.Str(v)
}

func (e *encoder) intField(name string, v int) {
	e.FieldStart(name)
	e.Int(v)
}

func (e *encoder) int64Field(name string, v int64) {
	e.FieldStart(name)
	e.Int64(v)
}

func (e *encoder) boolField(name string, v bool) {
	e.FieldStart(name)
	e.Bool(v)
}

// moneyField writes an amount as a two-decimal string, e.g. "35.00".
func (e *encoder) moneyField(name string, v decimal.Decimal) {
	e.FieldStart(name)
	e.Str(v.StringFixed(2))
}

func (e *encoder) timeField(name string, v time.Time) {
	e.FieldStart(name)
	e.Str(v.UTC().Format(time.RFC3339))
}

// objField writes a nested object field.
func (e *encoder) objField(name string, fn func(e *encoder)) {
	e.FieldStart(name)
	e.ObjStart()
	fn(e)
	e.ObjEnd()
}

// arrField writes an array field of n objects.
func (e *encoder) arrField(name string, n int, fn func(e *encoder, i int)) {
	e.FieldStart(name)
	e.ArrStart()
	for i := range n {
		e.ObjStart()
		fn(e, i)
		e.ObjEnd()
	}
	e.ArrEnd()
}

// writeOK writes {"success":true, ...fields}.
func writeOK(w http.ResponseWriter, status int, fields func(e *encoder)) {
	writeObject(w, status, func(e *encoder) {
		e.boolField("success", true)
		fields(e)
	})
}

func writeObject(w http.ResponseWriter, status int, fields func(e *encoder)) {
	e := &encoder{Encoder: &jx.Encoder{}}
	e.ObjStart()
	fields(e)
	e.ObjEnd()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// decodable is a request DTO that reads itself from JSON.
type decodable interface {
	Decode(d *jx.Decoder) error
}

// errMalformedBody marks request bodies that are not valid JSON for the
// target DTO.
var errMalformedBody = errors.New("malformed request body")

// readJSON decodes the request body into dst and validates it.
func (h *Handler) readJSON(w http.ResponseWriter, r *http.Request, dst decodable) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return validation.New("", "request body too large")
		}
		return errors.Wrap(err, "read body")
	}
	if len(body) == 0 {
		return validation.New("", "request body is required")
	}
	if err := dst.Decode(jx.DecodeBytes(body)); err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return validateStruct(dst)
}

// pathID parses a positive integer path parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id < 1 {
		return 0, validation.New(name, "must be a positive identifier")
	}
	return id, nil
}
