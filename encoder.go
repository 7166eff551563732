package splitlog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// Template placeholders understood by the line encoder.
const (
	placeholderDatetime  = "%datetime%"
	placeholderLevelName = "%level_name%"
	placeholderMessage   = "%message%"
	placeholderChannel   = "%channel%"
	placeholderContext   = "%context%"
	placeholderRequestID = "#reqId#"
)

// levelNameKey is the field carrying the severity name of a line.
const levelNameKey = "level_name"

// ErrInvalidTemplate is returned when the line template has no %message% placeholder.
var ErrInvalidTemplate = errors.New("splitlog: log format must contain " + placeholderMessage)

var linePool = buffer.NewPool()

// lineEncoder renders each entry through a fixed template such as
// "[%datetime%] abc123 %level_name% %message%\n".
type lineEncoder struct {
	*zapcore.MapObjectEncoder
	template   string
	timeLayout string
}

func newLineEncoder(template, timeLayout string) (*lineEncoder, error) {
	if !strings.Contains(template, placeholderMessage) {
		return nil, ErrInvalidTemplate
	}
	if !strings.HasSuffix(template, "\n") {
		template += "\n"
	}
	return &lineEncoder{
		MapObjectEncoder: zapcore.NewMapObjectEncoder(),
		template:         template,
		timeLayout:       timeLayout,
	}, nil
}

func (e *lineEncoder) Clone() zapcore.Encoder {
	clone := zapcore.NewMapObjectEncoder()
	for k, v := range e.Fields {
		clone.Fields[k] = v
	}
	return &lineEncoder{MapObjectEncoder: clone, template: e.template, timeLayout: e.timeLayout}
}

func (e *lineEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	ctx := zapcore.NewMapObjectEncoder()
	for k, v := range e.Fields {
		ctx.Fields[k] = v
	}
	for _, f := range fields {
		f.AddTo(ctx)
	}

	levelName := ent.Level.CapitalString()
	if name, ok := ctx.Fields[levelNameKey].(string); ok {
		levelName = name
		delete(ctx.Fields, levelNameKey)
	}

	r := strings.NewReplacer(
		placeholderDatetime, ent.Time.Format(e.timeLayout),
		placeholderLevelName, levelName,
		placeholderMessage, ent.Message,
		placeholderChannel, ent.LoggerName,
		placeholderContext, renderContext(ctx.Fields),
	)
	buf := linePool.Get()
	buf.AppendString(r.Replace(e.template))
	return buf, nil
}

// renderContext formats fields as space separated key=value pairs in key order.
func renderContext(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return strings.Join(parts, " ")
}

// newJSONEncoder is used when Config.JSON is set. The level key is left out
// because every entry carries its severity in the level_name field.
func newJSONEncoder(timeLayout string) zapcore.Encoder {
	cfg := zapcore.EncoderConfig{
		TimeKey:        "datetime",
		NameKey:        "channel",
		MessageKey:     "message",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.TimeEncoderOfLayout(timeLayout),
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}
	return zapcore.NewJSONEncoder(cfg)
}
