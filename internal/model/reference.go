package model

import "sort"

// SiteControlChoices は病院を担当する地域チーム（SiteControl）の選択肢。
var SiteControlChoices = []string{"ทีมใต้", "ทีมเหนือ", "ทีมอีสาน"}

// SystemChoices は病院が利用するシステムの選択肢。
var SystemChoices = []string{"HOSxpV4", "HOSxpV3", "WebPortal"}

// ServiceModelChoices はサービスモデルの選択肢（複数選択可）。
var ServiceModelChoices = []string{"Rider", "App", "Station to Station"}

// DefaultRegion は対応表にない県に割り当てる地域。
const DefaultRegion = "ภาคกลาง"

// ProvinceRegions は県名から地域への対応表。
// 病院の地域は県から自動的に決定する。
var ProvinceRegions = map[string]string{
	"กระบี่": "ภาคใต้", "กรุงเทพมหานคร": "ภาคกลาง", "กาญจนบุรี": "ภาคตะวันตก", "กาฬสินธุ์": "ภาคอีสาน",
	"กำแพงเพชร": "ภาคเหนือ", "ขอนแก่น": "ภาคอีสาน", "จันทบุรี": "ภาคตะวันออก", "ฉะเชิงเทรา": "ภาคตะวันออก",
	"ชลบุรี": "ภาคตะวันออก", "ชัยนาท": "ภาคกลาง", "ชัยภูมิ": "ภาคอีสาน", "ชุมพร": "ภาคใต้",
	"เชียงราย": "ภาคเหนือ", "เชียงใหม่": "ภาคเหนือ", "ตรัง": "ภาคใต้", "ตราด": "ภาคตะวันออก",
	"ตาก": "ภาคตะวันตก", "นครนายก": "ภาคกลาง", "นครปฐม": "ภาคกลาง", "นครพนม": "ภาคอีสาน",
	"นครราชสีมา": "ภาคอีสาน", "นครศรีธรรมราช": "ภาคใต้", "นครสวรรค์": "ภาคเหนือ", "นนทบุรี": "ภาคกลาง",
	"นราธิวาส": "ภาคใต้", "น่าน": "ภาคเหนือ", "บึงกาฬ": "ภาคอีสาน", "บุรีรัมย์": "ภาคอีสาน",
	"ปทุมธานี": "ภาคกลาง", "ประจวบคีรีขันธ์": "ภาคตะวันตก", "ปราจีนบุรี": "ภาคตะวันออก", "ปัตตานี": "ภาคใต้",
	"พระนครศรีอยุธยา": "ภาคกลาง", "พะเยา": "ภาคเหนือ", "พังงา": "ภาคใต้", "พัทลุง": "ภาคใต้",
	"พิจิตร": "ภาคเหนือ", "พิษณุโลก": "ภาคเหนือ", "เพชรบุรี": "ภาคตะวันตก", "เพชรบูรณ์": "ภาคเหนือ",
	"แพร่": "ภาคเหนือ", "ภูเก็ต": "ภาคใต้", "มหาสารคาม": "ภาคอีสาน", "มุกดาหาร": "ภาคอีสาน",
	"แม่ฮ่องสอน": "ภาคเหนือ", "ยะลา": "ภาคใต้", "ยโสธร": "ภาคอีสาน", "ร้อยเอ็ด": "ภาคอีสาน",
	"ระนอง": "ภาคใต้", "ระยอง": "ภาคตะวันออก", "ราชบุรี": "ภาคตะวันตก", "ลพบุรี": "ภาคกลาง",
	"ลำปาง": "ภาคเหนือ", "ลำพูน": "ภาคเหนือ", "เลย": "ภาคอีสาน", "ศรีสะเกษ": "ภาคอีสาน",
	"สกลนคร": "ภาคอีสาน", "สงขลา": "ภาคใต้", "สตูล": "ภาคใต้", "สมุทรปราการ": "ภาคกลาง",
	"สมุทรสงคราม": "ภาคกลาง", "สมุทรสาคร": "ภาคกลาง", "สระแก้ว": "ภาคตะวันออก", "สระบุรี": "ภาคกลาง",
	"สิงห์บุรี": "ภาคกลาง", "สุโขทัย": "ภาคเหนือ", "สุพรรณบุรี": "ภาคกลาง", "สุราษฎร์ธานี": "ภาคใต้",
	"สุรินทร์": "ภาคอีสาน", "หนองคาย": "ภาคอีสาน", "หนองบัวลำภู": "ภาคอีสาน", "อ่างทอง": "ภาคกลาง",
	"อำนาจเจริญ": "ภาคอีสาน", "อุดรธานี": "ภาคอีสาน", "อุตรดิตถ์": "ภาคเหนือ", "อุทัยธานี": "ภาคกลาง",
	"อุบลราชธานี": "ภาคอีสาน",
}

// RegionForProvince は県に対応する地域を返す。未知の県にはDefaultRegionを返す。
func RegionForProvince(province string) string {
	if region, ok := ProvinceRegions[province]; ok {
		return region
	}
	return DefaultRegion
}

// Provinces は県名の一覧をソートして返す。
func Provinces() []string {
	names := make([]string, 0, len(ProvinceRegions))
	for name := range ProvinceRegions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Regions は地域の一覧を重複なしでソートして返す。
func Regions() []string {
	seen := make(map[string]struct{})
	var regions []string
	for _, region := range ProvinceRegions {
		if _, ok := seen[region]; ok {
			continue
		}
		seen[region] = struct{}{}
		regions = append(regions, region)
	}
	sort.Strings(regions)
	return regions
}

// Contains はchoicesにvalueが含まれるかを返す。
func Contains(choices []string, value string) bool {
	for _, c := range choices {
		if c == value {
			return true
		}
	}
	return false
}
