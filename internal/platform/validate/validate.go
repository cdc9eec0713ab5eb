package validate

import (
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const DateLayout = "2006-01-02"

// Register: gin の binding エンジンに独自ルールを登録する（main から1回だけ呼ぶ）
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return RegisterOn(v)
}

func RegisterOn(v *validator.Validate) error {
	if err := v.RegisterValidation("ymd", ymd); err != nil {
		return err
	}
	return v.RegisterValidation("isbn", isbn)
}

// ymd: "YYYY-MM-DD"
func ymd(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

func isbn(fl validator.FieldLevel) bool {
	return IsISBN(fl.Field().String())
}

// IsISBN: ISBN-10 / ISBN-13（ハイフン・空白は無視）のチェックディジット検証
func IsISBN(s string) bool {
	d := NormalizeISBN(s)
	switch len(d) {
	case 10:
		sum := 0
		for i := 0; i < 10; i++ {
			c := d[i]
			var n int
			switch {
			case c >= '0' && c <= '9':
				n = int(c - '0')
			case (c == 'X') && i == 9:
				n = 10
			default:
				return false
			}
			sum += n * (10 - i)
		}
		return sum%11 == 0
	case 13:
		sum := 0
		for i := 0; i < 13; i++ {
			c := d[i]
			if c < '0' || c > '9' {
				return false
			}
			n := int(c - '0')
			if i%2 == 1 {
				n *= 3
			}
			sum += n
		}
		return sum%10 == 0
	}
	return false
}

func NormalizeISBN(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if r == '-' || unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ParseDate: "YYYY-MM-DD" を UTC の 0 時として読む
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}
