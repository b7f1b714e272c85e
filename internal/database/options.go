package database

import (
	"fmt"
	"strings"

	"github.com/helixml/scmtrack/domain/repository"
	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ApplyOptions builds a repository.Query from the given options and applies it to a GORM session.
func ApplyOptions(db *gorm.DB, options ...repository.Option) *gorm.DB {
	q := repository.Build(options...)

	db = applyConditions(db, q.Conditions())

	for _, ord := range q.Orders() {
		dir := "ASC"
		if !ord.Ascending() {
			dir = "DESC"
		}
		db = db.Order(fmt.Sprintf("%s %s", ord.Field(), dir))
	}

	if q.LimitValue() > 0 {
		db = db.Limit(q.LimitValue())
	}

	if q.OffsetValue() > 0 {
		db = db.Offset(q.OffsetValue())
	}

	return db
}

// ApplyConditions applies only WHERE conditions (no limit/offset/order) for COUNT and bulk queries.
func ApplyConditions(db *gorm.DB, options ...repository.Option) *gorm.DB {
	return applyConditions(db, repository.Build(options...).Conditions())
}

func applyConditions(db *gorm.DB, conditions []repository.Condition) *gorm.DB {
	for _, cond := range conditions {
		switch cond.Operator() {
		case repository.OpIn:
			db = db.Where(fmt.Sprintf("%s IN ?", cond.Field()), cond.Value())
		case repository.OpPrefix:
			prefix := likeEscaper.Replace(fmt.Sprint(cond.Value()))
			db = db.Where(fmt.Sprintf(`%s LIKE ? ESCAPE '\'`, cond.Field()), prefix+"%")
		case repository.OpIsNull:
			db = db.Where(fmt.Sprintf("%s IS NULL", cond.Field()))
		case repository.OpWhere:
			db = db.Where(cond.Field(), cond.Args()...)
		default:
			db = db.Where(fmt.Sprintf("%s = ?", cond.Field()), cond.Value())
		}
	}
	return db
}
