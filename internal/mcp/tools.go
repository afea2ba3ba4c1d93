package mcp

const (
	ToolSearch     = "search_efinance_companies"
	ToolStatistics = "get_efinance_statistics"
)

var refreshProperty = map[string]any{
	"type":        "boolean",
	"description": "true면 캐시를 무시하고 최신 데이터를 다시 가져옵니다. 기본값: false",
}

// Tools is the catalogue advertised by tools/list.
var Tools = []Tool{
	{
		Name:        ToolSearch,
		Description: "전자금융업 등록 및 말소 현황을 조회합니다. 금융감독원 FINE 포털에서 최신 데이터를 가져와 업체명, 업종, 등록/말소 상태로 검색합니다.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"company_name": map[string]any{
					"type":        "string",
					"maxLength":   100,
					"description": "검색할 업체명 (부분 일치, 예: '카카오', '네이버')",
				},
				"business_type": map[string]any{
					"type":        "string",
					"enum":        []string{"선불", "직불", "PG", "ESCROW", "EBPP", "전체"},
					"description": "업종 필터: 선불(선불전자지급수단), 직불(직불전자지급수단), PG(전자지급결제대행), ESCROW(결제대금예치), EBPP(전자고지결제). 기본값: 전체",
				},
				"status": map[string]any{
					"type":        "string",
					"enum":        []string{"등록", "말소", "전체"},
					"description": "등록/말소 상태 필터. 기본값: 전체",
				},
				"refresh": refreshProperty,
			},
			"required": []string{},
		},
	},
	{
		Name:        ToolStatistics,
		Description: "전자금융업 등록/말소 현황의 통계 요약을 조회합니다. 업종별 등록/말소 업체 수를 한눈에 파악할 수 있습니다.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"refresh": refreshProperty,
			},
			"required": []string{},
		},
	},
}
