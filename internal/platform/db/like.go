package db

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Contains: 部分一致用の LIKE パターン（% と _ はリテラル扱い）
func Contains(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
