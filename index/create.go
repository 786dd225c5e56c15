package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/manojoshi/redisearch/driver"
	"github.com/manojoshi/redisearch/option"
	"github.com/manojoshi/redisearch/scan"
)

const (
	// MaxFields caps the schema size.
	MaxFields = 1024
	// MaxTextFields caps the TEXT fields of any schema. CheckLimits applies it
	// whether or not MAXTEXTFIELDS is set.
	MaxTextFields = 128
)

// ErrNoIndexName is returned when a command is assembled without an index.
var ErrNoIndexName = errors.New("index: index name is required")

// LimitError reports a schema over one of the field limits. Limit is "fields"
// or "text fields".
type LimitError struct {
	Limit string
	Max   int
	Got   int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("index: too many %s: %d, max %d", e.Limit, e.Got, e.Max)
}

// Builder assembles FT.CREATE. Setters record the first invalid value and
// Args reports it; nothing is sent until Execute.
//
//	ok, err := index.NewBuilder("idx:movie").
//	    OnHash().
//	    Prefix("movie:").
//	    Field(index.Must(index.TextField("title", index.Weight(2)))).
//	    Execute(ctx, conn)
type Builder struct {
	name    string
	version *semver.Version
	err     error

	on        *option.Validated[string]
	prefix    *option.Numbered
	stopwords *option.Numbered

	maxTextFields   *option.Flag
	noOffsets       *option.Flag
	noHL            *option.Flag
	noFields        *option.Flag
	noFreqs         *option.Flag
	skipInitialScan *option.Flag

	filter        option.Option
	filterExpr    *option.Named[string]
	language      *option.Validated[string]
	languageField *option.Named[string]
	score         *option.Validated[float64]
	scoreField    *option.Named[string]
	payloadField  *option.Named[string]
	temporary     *option.Validated[int64]

	fields []*Field
}

// NewBuilder returns a builder for the named index.
func NewBuilder(name string) *Builder {
	b := &Builder{name: name}
	b.init()
	return b
}

func (b *Builder) init() {
	b.err = nil
	b.on = option.NewValidated("ON", option.OneOf("HASH", "JSON"))
	b.prefix = option.NewNumbered("PREFIX")
	b.stopwords = nil

	b.maxTextFields = option.NewFlag("MAXTEXTFIELDS")
	b.noOffsets = option.NewFlag("NOOFFSETS")
	b.noHL = option.NewFlag("NOHL")
	b.noFields = option.NewFlag("NOFIELDS")
	b.noFreqs = option.NewFlag("NOFREQS")
	b.skipInitialScan = option.NewFlag("SKIPINITIALSCAN")

	b.filterExpr = option.NewNamed[string]("FILTER")
	b.filter = option.NotEmpty(b.filterExpr)
	b.language = option.NewValidated("LANGUAGE", option.Language())
	b.languageField = option.NewNamed[string]("LANGUAGE_FIELD")
	b.score = option.NewValidated("SCORE", option.Between(0.0, 1.0))
	b.scoreField = option.NewNamed[string]("SCORE_FIELD")
	b.payloadField = option.NewNamed[string]("PAYLOAD_FIELD")
	b.temporary = option.NewValidated("TEMPORARY", option.Positive[int64]())

	b.fields = nil
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil && err != nil {
		b.err = err
	}
	return b
}

// Name sets the index name.
func (b *Builder) Name(name string) *Builder { b.name = name; return b }

// Version sets the target server version used for version-gated keywords.
func (b *Builder) Version(v *semver.Version) *Builder { b.version = v; return b }

// OnHash indexes hashes (the server default).
func (b *Builder) OnHash() *Builder { return b.fail(b.on.Set("HASH")) }

// OnJSON indexes JSON documents.
func (b *Builder) OnJSON() *Builder { return b.fail(b.on.Set("JSON")) }

// Prefix appends key prefixes.
func (b *Builder) Prefix(prefixes ...string) *Builder {
	b.prefix.AddStrings(prefixes...)
	return b
}

// StopWords replaces the default stop-word list. Calling it without words
// disables stop words (STOPWORDS 0).
func (b *Builder) StopWords(words ...string) *Builder {
	b.stopwords = option.NewNumbered("STOPWORDS").AllowEmpty().AddStrings(words...)
	return b
}

func (b *Builder) MaxTextFields() *Builder   { b.maxTextFields.Set(true); return b }
func (b *Builder) NoOffsets() *Builder       { b.noOffsets.Set(true); return b }
func (b *Builder) NoHL() *Builder            { b.noHL.Set(true); return b }
func (b *Builder) NoFields() *Builder        { b.noFields.Set(true); return b }
func (b *Builder) NoFreqs() *Builder         { b.noFreqs.Set(true); return b }
func (b *Builder) SkipInitialScan() *Builder { b.skipInitialScan.Set(true); return b }

// Filter restricts indexing to documents matching an aggregation expression.
func (b *Builder) Filter(expr string) *Builder { b.filterExpr.Set(expr); return b }

// Language sets the default stemming language.
func (b *Builder) Language(lang string) *Builder { return b.fail(b.language.Set(lang)) }

// LanguageField names the document field holding the language.
func (b *Builder) LanguageField(f string) *Builder { b.languageField.Set(f); return b }

// Score sets the default document score, between 0 and 1.
func (b *Builder) Score(s float64) *Builder { return b.fail(b.score.Set(s)) }

// ScoreField names the document field holding the score.
func (b *Builder) ScoreField(f string) *Builder { b.scoreField.Set(f); return b }

// PayloadField names the document field holding the payload.
func (b *Builder) PayloadField(f string) *Builder { b.payloadField.Set(f); return b }

// Temporary makes the index expire after seconds of inactivity.
func (b *Builder) Temporary(seconds int64) *Builder { return b.fail(b.temporary.Set(seconds)) }

// Field appends schema fields. Nil fields are rejected.
func (b *Builder) Field(fields ...*Field) *Builder {
	for _, f := range fields {
		if f == nil {
			return b.fail(errors.New("index: nil field"))
		}
	}
	b.fields = append(b.fields, fields...)
	return b
}

// Fields returns the schema collected so far.
func (b *Builder) Fields() []*Field { return append([]*Field(nil), b.fields...) }

// CheckLimits enforces MaxFields and MaxTextFields.
func CheckLimits(fields []*Field) error {
	if len(fields) > MaxFields {
		return &LimitError{Limit: "fields", Max: MaxFields, Got: len(fields)}
	}
	var text int
	for _, f := range fields {
		if f.Type() == TypeText {
			text++
		}
	}
	if text > MaxTextFields {
		return &LimitError{Limit: "text fields", Max: MaxTextFields, Got: text}
	}
	return nil
}

// Args returns the full FT.CREATE command:
//
//	FT.CREATE name [ON t] [PREFIX n p...] [STOPWORDS n w...] [flags...]
//	    [values...] SCHEMA field...
func (b *Builder) Args() (option.Tokens, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.name == "" {
		return nil, ErrNoIndexName
	}
	if len(b.fields) == 0 {
		return nil, errors.New("index: schema needs at least one field")
	}
	if err := CheckLimits(b.fields); err != nil {
		return nil, err
	}

	v := b.version
	out := option.Strs("FT.CREATE", b.name)
	for _, o := range []option.Option{
		b.on, b.prefix, b.stopwordsOpt(),
		b.maxTextFields, b.noOffsets, b.noHL, b.noFields, b.noFreqs, b.skipInitialScan,
		b.filter, b.language, b.languageField, b.score, b.scoreField, b.payloadField, b.temporary,
	} {
		if o.Valid() {
			out = append(out, o.Render(v)...)
		}
	}
	out = append(out, option.Str("SCHEMA"))
	for _, f := range b.fields {
		out = append(out, f.Render(v)...)
	}
	return out, nil
}

func (b *Builder) stopwordsOpt() option.Option {
	if b.stopwords == nil {
		return option.NewNumbered("STOPWORDS")
	}
	return b.stopwords
}

// Reset drops every setting except the index name and target version.
func (b *Builder) Reset() { b.init() }

// Execute sends FT.CREATE. On an OK reply the builder is reset and true is
// returned. Any other reply returns false and keeps the configuration so the
// call can be retried.
func (b *Builder) Execute(ctx context.Context, exec driver.Executor) (bool, error) {
	args, err := b.Args()
	if err != nil {
		return false, err
	}
	reply, err := exec.Do(ctx, args.Args()...)
	if err != nil {
		return false, fmt.Errorf("index: FT.CREATE %s: %w", b.name, driver.MapError(err))
	}
	if scan.String(reply) != "OK" {
		return false, nil
	}
	b.Reset()
	return true, nil
}
