package domain

import (
	"strconv"
	"strings"
)

// ScoringType selects the penalty policy of a violation code.
type ScoringType string

const (
	// ScoringRatio scales the penalty by the ward's base score and area coefficient.
	ScoringRatio ScoringType = "ratio"
	// ScoringDirect subtracts a flat factor regardless of ward size.
	ScoringDirect ScoringType = "direct"
)

// ViolationGroup buckets violation codes by regulation area.
type ViolationGroup string

const (
	GroupTrafficSafety ViolationGroup = "ATGT"
	GroupUrbanOrder    ViolationGroup = "TTDT"
	GroupSanitation    ViolationGroup = "VSMT"
)

// ViolationCode is a fixed catalog entry describing one municipal-order
// violation and its scoring policy.
type ViolationCode struct {
	Code                  string         `json:"code"`
	Group                 ViolationGroup `json:"group"`
	Name                  string         `json:"name"`
	LegalBasis            string         `json:"legal_basis"`
	ScoringType           ScoringType    `json:"scoring_type"`
	DirectDeductionFactor float64        `json:"direct_deduction_factor,omitempty"`
	Active                bool           `json:"active"`
}

// ViolationCodes is the fixed violation catalog. Codes are never removed;
// retired entries are marked inactive.
var ViolationCodes = []ViolationCode{
	{Code: "VP_ATGT_01", Group: GroupTrafficSafety, Name: "Car parked on sidewalk against regulations", LegalBasis: "Point e, Clause 3, Article 6", ScoringType: ScoringRatio, Active: true},
	{Code: "VP_ATGT_02", Group: GroupTrafficSafety, Name: "Special-purpose vehicle parked on sidewalk without permit", LegalBasis: "Point d, Clause 2, Article 8", ScoringType: ScoringRatio, Active: true},
	{Code: "VP_ATGT_03", Group: GroupTrafficSafety, Name: "Bicycle or rudimentary vehicle obstructing sidewalk", LegalBasis: "Point k, Clause 1, Article 9", ScoringType: ScoringRatio, Active: true},
	{Code: "VP_ATGT_04", Group: GroupTrafficSafety, Name: "Vehicle stopped where stopping is prohibited", LegalBasis: "Point d, Clause 2, Article 6", ScoringType: ScoringRatio, Active: true},
	{Code: "VP_ATGT_05", Group: GroupTrafficSafety, Name: "Vehicle parked where parking is prohibited", LegalBasis: "Point e, Clause 3, Article 6", ScoringType: ScoringRatio, Active: true},
	{Code: "VP_TTDT_01", Group: GroupUrbanOrder, Name: "Street vending on restricted streets", LegalBasis: "Point e, Clause 2, Article 12", ScoringType: ScoringDirect, DirectDeductionFactor: 0.1, Active: true},
	{Code: "VP_TTDT_02", Group: GroupUrbanOrder, Name: "Drying crops or straw on the roadway", LegalBasis: "Point g, Clause 2, Article 12", ScoringType: ScoringRatio, Active: true},
	{Code: "VP_TTDT_03", Group: GroupUrbanOrder, Name: "Crowd gathering obstructing the roadway", LegalBasis: "Point a, Clause 2, Article 12", ScoringType: ScoringRatio, Active: true},
	{Code: "VP_TTDT_04", Group: GroupUrbanOrder, Name: "Ball games or skating on the roadway", LegalBasis: "Point b, Clause 2, Article 12", ScoringType: ScoringRatio, Active: true},
	{Code: "VP_TTDT_05", Group: GroupUrbanOrder, Name: "Occupation of the median strip", LegalBasis: "Point d, Clause 6, Article 12", ScoringType: ScoringRatio, Active: true},
	{Code: "VP_TTDT_06", Group: GroupUrbanOrder, Name: "Unauthorized commercial use of road or sidewalk", LegalBasis: "Clause 7, Article 12", ScoringType: ScoringRatio, Active: true},
	{Code: "VP_TTDT_07", Group: GroupUrbanOrder, Name: "Goods or production materials displayed on sidewalk", LegalBasis: "Clause 9, Article 12", ScoringType: ScoringRatio, Active: true},
	{Code: "VP_TTDT_08A", Group: GroupUrbanOrder, Name: "Vehicle custody service without permit", LegalBasis: "Clause 10, Article 12", ScoringType: ScoringDirect, DirectDeductionFactor: 5, Active: true},
	{Code: "VP_TTDT_08B", Group: GroupUrbanOrder, Name: "Vehicle custody service outside permit terms", LegalBasis: "Clause 10, Article 12", ScoringType: ScoringDirect, DirectDeductionFactor: 2, Active: true},
	{Code: "VP_VSMT_01", Group: GroupSanitation, Name: "Littering in public places", LegalBasis: "Point c, Clause 1, Article 25, Decree 45", ScoringType: ScoringRatio, Active: true},
	{Code: "VP_VSMT_02", Group: GroupSanitation, Name: "Littering on sidewalks or into drainage", LegalBasis: "Point d, Clause 1, Article 25, Decree 45", ScoringType: ScoringRatio, Active: true},
}

// ViolationCodeByCode looks up a catalog entry. The boolean is false for
// unknown codes; callers treat those as zero-weight.
func ViolationCodeByCode(code string) (ViolationCode, bool) {
	for _, vc := range ViolationCodes {
		if vc.Code == code {
			return vc, true
		}
	}
	return ViolationCode{}, false
}

// BonusCriteria is a fixed catalog entry a ward may claim bonus points
// against. IsFixed criteria award exactly MaxPoints; otherwise MaxPoints caps
// a per-instance award.
type BonusCriteria struct {
	ID        string  `json:"id"`
	Content   string  `json:"content"`
	MaxPoints float64 `json:"max_points"`
	IsFixed   bool    `json:"is_fixed"`
}

// BonusCriteriaList is the fixed bonus-criteria catalog.
var BonusCriteriaList = []BonusCriteria{
	{ID: "B1", Content: "No repeat violations during the evaluation period", MaxPoints: 3, IsFixed: true},
	{ID: "B2", Content: "Long-standing hotspot fully eliminated", MaxPoints: 2, IsFixed: false},
	{ID: "B3", Content: "Stability maintained for 30 days or more in a complex area", MaxPoints: 2, IsFixed: true},
	{ID: "B4", Content: "Full implementation of city directives", MaxPoints: 2, IsFixed: false},
	{ID: "B5", Content: "Proactive coordination with commune authorities and organisations", MaxPoints: 2, IsFixed: false},
	{ID: "B6", Content: "Plans, outreach campaigns or notable initiatives delivered", MaxPoints: 2, IsFixed: false},
}

// BonusCriteriaByID looks up a bonus criteria catalog entry.
func BonusCriteriaByID(id string) (BonusCriteria, bool) {
	for _, bc := range BonusCriteriaList {
		if bc.ID == id {
			return bc, true
		}
	}
	return BonusCriteria{}, false
}

// wardNames is the fixed roster of ward units seeded at store initialization.
var wardNames = []string{
	"Hoàn Kiếm", "Cửa Nam", "Ba Đình", "Ngọc Hà", "Giảng Võ", "Hai Bà Trưng", "Vĩnh Tuy", "Bạch Mai", "Đống Đa", "Kim Liên",
	"Văn Miếu - Quốc Tử Giám", "Láng", "Ô Chợ Dừa", "Hồng Hà", "Lĩnh Nam", "Hoàng Mai", "Vĩnh Hưng", "Tương Mai", "Định Công",
	"Hoàng Liệt", "Yên Sở", "Thanh Xuân", "Khương Đình", "Phương Liệt", "Cầu Giấy", "Nghĩa Đô", "Yên Hòa", "Tây Hồ", "Phú Thượng",
	"Tây Tựu", "Xuân Đỉnh", "Đông Ngạc", "Thượng Cát", "Phú Diễn", "Từ Liêm", "Tây Mỗ", "Đại Mỗ", "Xuân Phương", "Long Biên",
	"Bồ Đề", "Việt Hưng", "Phúc Lợi", "Hà Đông", "Dương Nội", "Yên Nghĩa", "Phú Lương", "Kiến Hưng", "Thanh Liệt", "Chương Mỹ",
	"Tùng Thiện", "Sơn Tây", "Thanh Trì", "Đại Thanh", "Ngọc Hồi", "Nam Phủ", "Thường Tín", "Thượng Phúc", "Chương Dương", "Hồng Vân",
	"Phương Dực", "Phú Xuyên", "Chuyên Mỹ", "Đại Xuyên", "Thanh Oai", "Bình Minh", "Tam Hưng", "Dân Hòa", "Ứng Thiên", "Vân Đình",
	"Hoà Xá", "Ứng Hoà", "Phúc Sơn", "Hồng Sơn", "Mỹ Đức", "Hương Sơn", "Phú Nghĩa", "Xuân Mai", "Trần Phú", "Hoà Phú", "Quảng Bị",
	"Quảng Oai", "Vật Lại", "Cổ Đô", "Bất Bạt", "Suối Hai", "Ba Vì", "Yên Bài", "Minh Châu", "Đoài Phương", "Phúc Thọ", "Phúc Lộc",
	"Hát Môn", "Thạch Thất", "Hạ Bằng", "Tây Phương", "Hòa Lạc", "Yên Xuân", "Quốc Oai", "Kiều Phú", "Phú Cát", "Hưng Đạo", "Hoài Đức",
	"Dương Hòa", "Sơn Đồng", "An Khánh", "Đan Phượng", "Ô Diên", "Liên Minh", "Phù Đổng", "Thuận An", "Gia Lâm", "Bát Tràng", "Đông Anh",
	"Thư Lâm", "Phúc Thịnh", "Thiên Lộc", "Vĩnh Thanh", "Mê Linh", "Yên Lãng", "Tiên Thắng", "Quang Minh", "Sóc Sơn", "Nội Bài",
	"Kim Anh", "Đa Phúc", "Trung Giã",
}

// vietnameseFold maps accented Vietnamese letters to their ASCII base for
// email slug generation.
var vietnameseFold = map[rune]rune{
	'à': 'a', 'á': 'a', 'ả': 'a', 'ã': 'a', 'ạ': 'a',
	'ă': 'a', 'ằ': 'a', 'ắ': 'a', 'ẳ': 'a', 'ẵ': 'a', 'ặ': 'a',
	'â': 'a', 'ầ': 'a', 'ấ': 'a', 'ẩ': 'a', 'ẫ': 'a', 'ậ': 'a',
	'è': 'e', 'é': 'e', 'ẻ': 'e', 'ẽ': 'e', 'ẹ': 'e',
	'ê': 'e', 'ề': 'e', 'ế': 'e', 'ể': 'e', 'ễ': 'e', 'ệ': 'e',
	'ì': 'i', 'í': 'i', 'ỉ': 'i', 'ĩ': 'i', 'ị': 'i',
	'ò': 'o', 'ó': 'o', 'ỏ': 'o', 'õ': 'o', 'ọ': 'o',
	'ô': 'o', 'ồ': 'o', 'ố': 'o', 'ổ': 'o', 'ỗ': 'o', 'ộ': 'o',
	'ơ': 'o', 'ờ': 'o', 'ớ': 'o', 'ở': 'o', 'ỡ': 'o', 'ợ': 'o',
	'ù': 'u', 'ú': 'u', 'ủ': 'u', 'ũ': 'u', 'ụ': 'u',
	'ư': 'u', 'ừ': 'u', 'ứ': 'u', 'ử': 'u', 'ữ': 'u', 'ự': 'u',
	'ỳ': 'y', 'ý': 'y', 'ỷ': 'y', 'ỹ': 'y', 'ỵ': 'y',
	'đ': 'd',
}

func slugify(name string) string {
	lower := strings.ToLower(name)
	var b strings.Builder
	for _, r := range lower {
		if folded, ok := vietnameseFold[r]; ok {
			r = folded
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// seedPoints assigns a spread of initial violation-point baselines across the
// roster so every area tier is represented.
func seedPoints(index int) float64 {
	switch index % 5 {
	case 0:
		return 1300
	case 1:
		return 500
	case 2:
		return 200
	default:
		return 1000
	}
}

// SeedUnits returns the fixed unit catalog used to initialise a fresh store:
// the administrative and reviewer accounts followed by one account per ward,
// each classified through AreaTier from its initial point baseline.
func SeedUnits() []Unit {
	units := []Unit{
		{
			ID:              "u_admin",
			Email:           "admin@qlhc.hanoi.vn",
			Role:            RoleAdmin,
			UnitName:        "Administrative Management Office",
			PhoneNumber:     "0988xxxxxx",
			AreaCoefficient: 1,
			BaseScore:       1200,
		},
		{
			ID:              "u_reviewer",
			Email:           "canbo1@qlhc.hanoi.vn",
			Role:            RoleReviewer,
			UnitName:        "Administrative Review Taskforce",
			PhoneNumber:     "0977xxxxxx",
			AreaCoefficient: 1,
			BaseScore:       1200,
		},
	}
	for i, name := range wardNames {
		points := seedPoints(i)
		tier := AreaTier(points)
		units = append(units, Unit{
			ID:                   "u_" + strconv.Itoa(i+1),
			Email:                "p." + slugify(name) + "@pol.vn",
			Role:                 RoleWard,
			UnitName:             name,
			PhoneNumber:          "09xxxxxxxx",
			AreaCoefficient:      tier.Coefficient,
			BaseScore:            tier.BaseScore,
			TotalViolationPoints: points,
		})
	}
	return units
}
