package splitlog

import (
	"encoding/json"
	"fmt"
	"sort"

	"gorm.io/gorm"
)

// GormResultLogPlugin is a GORM plugin that records query results as SQL entries.
type GormResultLogPlugin struct {
	router *Router
	cfg    GormConfig
}

// NewGormResultLogPlugin creates a new GormResultLogPlugin.
func NewGormResultLogPlugin(router *Router, cfg GormConfig) *GormResultLogPlugin {
	return &GormResultLogPlugin{router: router, cfg: cfg}
}

// Name returns the name of the plugin.
func (p *GormResultLogPlugin) Name() string {
	return "GormResultLogPlugin"
}

// Initialize registers the query callback when result logging is enabled.
func (p *GormResultLogPlugin) Initialize(db *gorm.DB) error {
	if !p.cfg.LogQueryResult {
		return nil
	}
	return db.Callback().Query().After("gorm:query").Register("splitlog:log_result", p.logResult)
}

func (p *GormResultLogPlugin) logResult(db *gorm.DB) {
	ctx := db.Statement.Context

	resultJSON, err := json.Marshal(db.Statement.Dest)
	if err != nil {
		p.record(db, "WARNING", fmt.Sprintf("[ RESULT ] marshal query result: %v", err))
		return
	}
	if p.cfg.LogResultMaxBytes > 0 && len(resultJSON) > p.cfg.LogResultMaxBytes {
		resultJSON = truncateResult(resultJSON, p.cfg.LogResultMaxBytes)
	}
	if err := p.router.Record(ctx, TagSQL, "[ RESULT ] "+string(resultJSON)); err != nil {
		p.router.reportError(fmt.Errorf("record query result: %w", err))
	}
}

func (p *GormResultLogPlugin) record(db *gorm.DB, tag, msg string) {
	if err := p.router.Record(db.Statement.Context, tag, msg); err != nil {
		p.router.reportError(err)
	}
}

// truncateResult shrinks a JSON object to at most limit bytes by keeping ID
// first and then whole fields in key order while they fit. Anything that is
// not a JSON object is cut at limit bytes.
func truncateResult(resultJSON []byte, limit int) []byte {
	var data map[string]interface{}
	if err := json.Unmarshal(resultJSON, &data); err != nil {
		return resultJSON[:limit]
	}

	keys := make([]string, 0, len(data))
	for key := range data {
		if key != "ID" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	if _, ok := data["ID"]; ok {
		keys = append([]string{"ID"}, keys...)
	}

	truncated := make(map[string]interface{})
	currentSize := 2 // for '{}'
	for _, key := range keys {
		fieldJSON, err := json.Marshal(map[string]interface{}{key: data[key]})
		if err != nil {
			continue
		}
		// the field's own braces are replaced by one separating comma
		if currentSize+len(fieldJSON)-1 > limit {
			break
		}
		truncated[key] = data[key]
		currentSize += len(fieldJSON) - 1
	}
	out, err := json.Marshal(truncated)
	if err != nil {
		return resultJSON[:limit]
	}
	return out
}
