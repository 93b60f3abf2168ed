package refdata

// Built-in reference sets. CSV files extend these; they are never required
// for the detector to function.

// defaultProvinces are the 17 first-level administrative divisions in their
// common short form.
var defaultProvinces = []string{
	"서울", "부산", "대구", "인천", "광주", "대전", "울산", "세종",
	"경기", "강원", "충북", "충남", "전북", "전남", "경북", "경남", "제주",
}

// defaultProvinceLabels are the full official names used as substitution
// output (pool side) and recognized as address tokens (detector side).
var defaultProvinceLabels = []string{
	"서울특별시", "부산광역시", "대구광역시", "인천광역시", "광주광역시",
	"대전광역시", "울산광역시", "세종특별자치시", "경기도", "강원도",
	"충청북도", "충청남도", "전라북도", "전라남도", "경상북도", "경상남도",
	"제주특별자치도",
}

// defaultDistricts cover the metropolitan districts that appear in address
// text without a province prefix.
var defaultDistricts = []string{
	"강남구", "강동구", "강북구", "강서구", "관악구", "광진구", "구로구",
	"금천구", "노원구", "도봉구", "동대문구", "동작구", "마포구", "서대문구",
	"서초구", "성동구", "성북구", "송파구", "양천구", "영등포구", "용산구",
	"은평구", "종로구", "중랑구",
	"해운대구", "부산진구", "동래구", "사하구", "금정구", "연제구",
	"수영구", "사상구", "수성구", "달서구", "달성군",
	"중구", "동구", "서구", "남구", "북구",
}

// singleSurnames are the leading characters accepted for two-character name
// candidates that are not on the known-names list.
var singleSurnames = []string{
	"김", "이", "박", "최", "정", "강", "조", "윤", "장", "임",
	"한", "오", "서", "신", "권", "황", "안", "송", "전", "홍",
	"유", "고", "문", "양", "손", "배", "백", "허", "남", "심",
	"노", "하", "곽", "성", "차", "주", "우", "구", "민", "류",
	"나", "진", "지", "엄", "채", "원", "천", "방", "공", "현",
}

// compoundSurnames are two-character family names.
var compoundSurnames = []string{
	"남궁", "황보", "제갈", "선우", "독고", "사공", "서문", "어금",
}

// defaultExcludeWords are common nouns, titles, and particles that name
// recognizers frequently capture by mistake.
var defaultExcludeWords = []string{
	"고객", "손님", "회원", "사용자", "선생", "선생님", "사장", "사장님",
	"부장", "과장", "대리", "팀장", "담당", "담당자", "기사", "원장",
	"거주", "거주하시", "분이시", "주세요", "드세요", "하세요", "보내드",
	"메일", "이메일", "연락", "연락처", "문의", "예약", "확인", "사항",
	"정보", "내용", "시간", "장소", "주소", "전화", "번호", "이름",
	"오늘", "내일", "어제", "지금", "해운", "감사", "안녕",
}

// defaultNames seed the known-names list so name detection works without
// name.csv present.
var defaultNames = []string{
	"홍길동", "김철수", "이영희", "박민준", "최서연", "정우진", "윤아름",
	"장도윤", "서지민", "조하린", "한도현", "임가은", "강시우", "오지훈",
	"문다은", "신태현", "배서윤", "권지후", "백나윤", "우재민", "김민준",
	"이서준", "박지우", "남궁민수",
}
