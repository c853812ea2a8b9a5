package datatypes

import (
	"encoding/base64"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/krateoplatformops/oascontracts/internal/tools/result"
)

const (
	letters        = "abcdefghijklmnopqrstuvwxyz"
	alphanumerics  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	minEmailLength = 6 // "a@b.cd"
	minYear        = 1970
	maxYear        = 2099
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func randomWord(n int) string {
	return randomFrom(letters, n)
}

func randomFrom(alphabet string, n int) string {
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		sb.WriteByte(alphabet[rand.IntN(len(alphabet))])
	}
	return sb.String()
}

// randomLength picks a length in r, at most defaultWindow past its minimum.
func randomLength(r Range) int {
	return int(r.withSpan(defaultWindow).RandomIntegerValue().IntPart())
}

func checkLength(r Range, n int) result.Result[any] {
	if !r.ContainsInt(n) {
		return result.Failuref[any]("length %d is outside of range %s", n, r)
	}
	return result.Success[any](nil)
}

// StringDataType accepts strings whose length, in characters, lies in its
// range.
type StringDataType struct {
	base
	length Range
}

func NewString(c Common, length Range) result.Result[*StringDataType] {
	length = length.withMinimum(0)
	if !length.ContainsIntegers() {
		return result.Failuref[*StringDataType]("length range %s of '%s' contains no integer", length, c.name())
	}
	t := &StringDataType{base: newBase(c, KindString, "string"), length: length}
	return withEnum(t, &t.base, c.Enum)
}

func (t *StringDataType) Length() Range { return t.length }

func (t *StringDataType) Validate(value any) result.Result[any] {
	return t.validate(value, isString, func(v any) result.Result[any] {
		s := v.(string)
		return result.Success[any](s).CombineWith(checkLength(t.length, utf8.RuneCountInString(s)))
	})
}

func (t *StringDataType) RandomValue() any { return t.generate(0) }
func (t *StringDataType) IsFullyStructured() bool { return false }
func (t *StringDataType) generate(depth int) any {
	return t.random(depth, func(int) any { return randomFrom(alphanumerics, randomLength(t.length)) })
}

// EmailDataType accepts strings shaped like local@domain.tld.
type EmailDataType struct {
	base
	length    Range
	generated Range
}

func NewEmail(c Common, length Range) result.Result[*EmailDataType] {
	generated := length.withMinimum(minEmailLength)
	if !generated.ContainsIntegers() {
		return result.Failuref[*EmailDataType]("length range %s of '%s' is too short for an email address", length, c.name())
	}
	t := &EmailDataType{base: newBase(c, KindEmail, "string/email"), length: length, generated: generated}
	return withEnum(t, &t.base, c.Enum)
}

func (t *EmailDataType) Validate(value any) result.Result[any] {
	return t.validate(value, isString, func(v any) result.Result[any] {
		s := v.(string)
		res := result.Success[any](s).CombineWith(checkLength(t.length, utf8.RuneCountInString(s)))
		if !emailPattern.MatchString(s) {
			res = res.CombineWith(result.Failuref[any]("%s is not a valid email address", describe(s)))
		}
		return res
	})
}

func (t *EmailDataType) RandomValue() any { return t.generate(0) }
func (t *EmailDataType) IsFullyStructured() bool { return false }
func (t *EmailDataType) generate(depth int) any {
	return t.random(depth, func(int) any {
		n := randomLength(t.generated)
		// n = local + "@" + domain + "." + 2 letter tld
		local := (n - 4) / 2
		if local < 1 {
			local = 1
		}
		domain := n - 4 - local
		return fmt.Sprintf("%s@%s.%s", randomFrom(alphanumerics, local), randomWord(domain), randomWord(2))
	})
}

// Base64DataType accepts standard base64 strings. Encoded lengths are always
// multiples of 4.
type Base64DataType struct {
	base
	length               Range
	minGroups, maxGroups int64
}

func NewBase64(c Common, length Range) result.Result[*Base64DataType] {
	if lo, ok := length.Minimum(); ok && !lo.IsZero() {
		n := lo.IntPart()
		if !lo.IsInteger() || n < 4 || n%4 != 0 {
			return result.Failuref[*Base64DataType]("minLength of '%s' must be a multiple of 4 and at least 4, got %s", c.name(), lo)
		}
	}
	length = length.withMinimum(0)
	lo, hi, ok := length.IntegerBounds()
	minGroups := (lo.IntPart() + 3) / 4
	maxGroups := hi.IntPart() / 4
	if !ok || minGroups > maxGroups {
		return result.Failuref[*Base64DataType]("length range %s of '%s' contains no multiple of 4", length, c.name())
	}
	t := &Base64DataType{
		base:      newBase(c, KindBase64, "string/byte"),
		length:    length,
		minGroups: minGroups,
		maxGroups: maxGroups,
	}
	return withEnum(t, &t.base, c.Enum)
}

func (t *Base64DataType) Validate(value any) result.Result[any] {
	return t.validate(value, isString, func(v any) result.Result[any] {
		s := v.(string)
		res := result.Success[any](s).CombineWith(checkLength(t.length, len(s)))
		if _, err := base64.StdEncoding.DecodeString(s); err != nil {
			res = res.CombineWith(result.Failuref[any]("invalid base64 content: %v", err))
		}
		return res
	})
}

func (t *Base64DataType) RandomValue() any { return t.generate(0) }
func (t *Base64DataType) IsFullyStructured() bool { return false }
func (t *Base64DataType) generate(depth int) any {
	return t.random(depth, func(int) any {
		hi := min(t.maxGroups, t.minGroups+defaultWindow/4)
		groups := t.minGroups + rand.Int64N(hi-t.minGroups+1)
		size := 0
		if groups > 0 {
			// any of 3k-2, 3k-1, 3k bytes encodes to exactly 4k characters
			size = int(3*groups) - rand.IntN(3)
		}
		raw := make([]byte, size)
		for i := range raw {
			raw[i] = byte(rand.IntN(256))
		}
		return base64.StdEncoding.EncodeToString(raw)
	})
}

// BinaryDataType accepts raw content as bytes or string. Length is counted
// in bytes.
type BinaryDataType struct {
	base
	length Range
}

func NewBinary(c Common, length Range) result.Result[*BinaryDataType] {
	length = length.withMinimum(0)
	if !length.ContainsIntegers() {
		return result.Failuref[*BinaryDataType]("length range %s of '%s' contains no integer", length, c.name())
	}
	t := &BinaryDataType{base: newBase(c, KindBinary, "string/binary"), length: length}
	return withEnum(t, &t.base, c.Enum)
}

func (t *BinaryDataType) Validate(value any) result.Result[any] {
	return t.validate(value, func(v any) bool {
		switch v.(type) {
		case string, []byte:
			return true
		}
		return false
	}, func(v any) result.Result[any] {
		n := 0
		switch b := v.(type) {
		case string:
			n = len(b)
		case []byte:
			n = len(b)
		}
		return result.Success(v).CombineWith(checkLength(t.length, n))
	})
}

func (t *BinaryDataType) RandomValue() any { return t.generate(0) }
func (t *BinaryDataType) IsFullyStructured() bool { return false }
func (t *BinaryDataType) generate(depth int) any {
	return t.random(depth, func(int) any {
		raw := make([]byte, randomLength(t.length))
		for i := range raw {
			raw[i] = byte(rand.IntN(256))
		}
		return raw
	})
}

// UUIDDataType accepts strings that parse as a UUID.
type UUIDDataType struct {
	base
}

func NewUUID(c Common) result.Result[*UUIDDataType] {
	t := &UUIDDataType{base: newBase(c, KindUUID, "string/uuid")}
	return withEnum(t, &t.base, c.Enum)
}

func (t *UUIDDataType) Validate(value any) result.Result[any] {
	return t.validate(value, isString, func(v any) result.Result[any] {
		if _, err := uuid.Parse(v.(string)); err != nil {
			return result.Failuref[any]("%s is not a valid uuid", describe(v))
		}
		return result.Success(v)
	})
}

func (t *UUIDDataType) RandomValue() any { return t.generate(0) }
func (t *UUIDDataType) IsFullyStructured() bool { return false }
func (t *UUIDDataType) generate(depth int) any {
	return t.random(depth, func(int) any { return uuid.NewString() })
}

// DateDataType accepts ISO-8601 calendar dates (2006-01-02).
type DateDataType struct {
	base
}

func NewDate(c Common) result.Result[*DateDataType] {
	t := &DateDataType{base: newBase(c, KindDate, "string/date")}
	return withEnum(t, &t.base, c.Enum)
}

func (t *DateDataType) Validate(value any) result.Result[any] {
	return t.validate(value, isString, func(v any) result.Result[any] {
		if _, err := time.Parse(time.DateOnly, v.(string)); err != nil {
			return result.Failuref[any]("%s is not a valid date (expected YYYY-MM-DD)", describe(v))
		}
		return result.Success(v)
	})
}

func (t *DateDataType) RandomValue() any { return t.generate(0) }
func (t *DateDataType) IsFullyStructured() bool { return false }
func (t *DateDataType) generate(depth int) any {
	return t.random(depth, func(int) any {
		return randomDay(time.UTC).Format(time.DateOnly)
	})
}

// DateTimeDataType accepts RFC 3339 date-times with an offset.
type DateTimeDataType struct {
	base
}

func NewDateTime(c Common) result.Result[*DateTimeDataType] {
	t := &DateTimeDataType{base: newBase(c, KindDateTime, "string/date-time")}
	return withEnum(t, &t.base, c.Enum)
}

func (t *DateTimeDataType) Validate(value any) result.Result[any] {
	return t.validate(value, isString, func(v any) result.Result[any] {
		if _, err := time.Parse(time.RFC3339, v.(string)); err != nil {
			return result.Failuref[any]("%s is not a valid date-time (expected RFC 3339)", describe(v))
		}
		return result.Success(v)
	})
}

func (t *DateTimeDataType) RandomValue() any { return t.generate(0) }
func (t *DateTimeDataType) IsFullyStructured() bool { return false }
func (t *DateTimeDataType) generate(depth int) any {
	return t.random(depth, func(int) any {
		// offsets in quarter hours, from -12:00 to +14:00
		offset := (rand.IntN(105) - 48) * 15 * 60
		zone := time.FixedZone("", offset)
		day := randomDay(zone)
		ts := time.Date(day.Year(), day.Month(), day.Day(), rand.IntN(24), rand.IntN(60), rand.IntN(60), 0, zone)
		return ts.Format(time.RFC3339)
	})
}

// randomDay draws year, month and day separately so that every day of a
// month, including 29 February on leap years, can come out.
func randomDay(loc *time.Location) time.Time {
	year := minYear + rand.IntN(maxYear-minYear+1)
	month := time.Month(1 + rand.IntN(12))
	// day 0 of the next month is the last day of this one
	days := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	return time.Date(year, month, 1+rand.IntN(days), 0, 0, 0, 0, loc)
}
