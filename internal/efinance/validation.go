package efinance

import (
	"fmt"
	"strings"
	"unicode/utf8"

	e "efb/internal/errors"
	"efb/internal/models"
)

// MaxCompanyNameLength is counted in characters, not bytes.
const MaxCompanyNameLength = 100

type SearchArgs struct {
	CompanyName  string
	BusinessType models.BusinessType
	Status       models.Status
	Refresh      bool
}

var allowedBusinessTypes = append(append([]models.BusinessType{}, models.BusinessTypes...), models.BusinessTypeAll)

// ValidateSearchArgs checks raw tool or query arguments. Absent or null values
// take their defaults; non-string values are stringified. Refresh is only set
// by a literal boolean true.
func ValidateSearchArgs(args map[string]any) (SearchArgs, error) {
	out := SearchArgs{
		BusinessType: models.BusinessTypeAll,
		Status:       models.StatusAll,
	}

	if v, ok := stringArg(args, "company_name"); ok {
		if utf8.RuneCountInString(v) > MaxCompanyNameLength {
			return SearchArgs{}, e.New(e.ErrInvalidArgument,
				fmt.Sprintf("업체명은 %d자 이내로 입력해주세요.", MaxCompanyNameLength))
		}
		out.CompanyName = v
	}

	if v, ok := stringArg(args, "business_type"); ok {
		t, ok := models.ParseBusinessType(v)
		if !ok {
			return SearchArgs{}, e.New(e.ErrInvalidArgument,
				fmt.Sprintf("유효하지 않은 업종: %q. 허용 값: %s", v, join(allowedBusinessTypes)))
		}
		out.BusinessType = t
	}

	if v, ok := stringArg(args, "status"); ok {
		s, ok := models.ParseStatus(v)
		if !ok {
			return SearchArgs{}, e.New(e.ErrInvalidArgument,
				fmt.Sprintf("유효하지 않은 상태: %q. 허용 값: %s", v, join(models.Statuses)))
		}
		out.Status = s
	}

	out.Refresh = RefreshArg(args)
	return out, nil
}

// RefreshArg reports whether args["refresh"] is the boolean true.
func RefreshArg(args map[string]any) bool {
	b, ok := args["refresh"].(bool)
	return ok && b
}

func stringArg(args map[string]any, key string) (string, bool) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return fmt.Sprint(v), true
}

func join[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
