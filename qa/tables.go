package qa

// koreanOnomatopoeia lists sound-effect and mimetic words that translators
// deliberately leave in Korean as a style choice. Their presence in target
// text is a warning, not an error.
var koreanOnomatopoeia = map[string]bool{
	// Sound effects
	"킁킁": true, "쿵": true, "쾅": true, "짝짝": true, "딩동": true,
	"띵동": true, "뚝뚝": true, "졸졸": true, "철썩": true, "쨍그랑": true,
	"빵": true, "펑": true, "탁": true, "딱": true, "쩝쩝": true,
	"찍찍": true, "끽끽": true, "끼익": true, "삐걱": true, "덜컹": true,
	"쿵쿵": true, "쾅쾅": true, "두근두근": true, "콩닥콩닥": true,
	// Emotional expressions
	"훗": true, "흥": true, "헉": true, "엉엉": true, "흑흑": true,
	"앙앙": true, "깔깔": true, "히히": true, "호호": true, "끄덕끄덕": true,
	"푸하하": true, "껄껄": true, "키득키득": true, "끙끙": true, "쩝": true,
	"푸": true, "헐": true, "엥": true, "에잇": true,
	// Movement and state
	"살금살금": true, "후다닥": true, "뚜벅뚜벅": true, "터벅터벅": true,
	"휘청휘청": true, "비틀비틀": true, "아장아장": true, "뒤뚱뒤뚱": true,
	"사뿐사뿐": true,
}

// similarCharacters maps a correct Han character to the lookalikes and
// homophones a model commonly substitutes for it when rendering Korean names.
// Keyed by the correct character; values are the wrong alternatives.
var similarCharacters = map[rune][]rune{
	// 현 (hyeon)
	'賢': {'炫', '玄', '鉉', '泫', '眩'},
	// 준 (jun)
	'俊': {'浚', '峻', '駿', '濬'},
	// 민 (min)
	'敏': {'民', '珉', '旻', '玟', '憫'},
	// 조 (jo), as a surname
	'趙': {'曹', '兆', '朝'},
	// 휘 (hwi)
	'輝': {'煇', '暉', '徽', '揮'},
	// 인 (in)
	'仁': {'寅', '認'},
	// 수 (su)
	'秀': {'洙', '壽', '修', '守'},
	// 혁 (hyeok)
	'赫': {'爀', '嚇'},
	// 윤 (yun)
	'允': {'尹', '潤', '倫'},
	// 제 (je)
	'濟': {'済', '祭', '制'},
	// 아 (a)
	'雅': {'亞', '娥', '芽'},
}

// similarAlternatives generates every plausible wrong rendering of a correct
// translation by substituting one character at a time from the confusability
// table.
func similarAlternatives(correct string) []string {
	runes := []rune(correct)
	var out []string
	seen := map[string]bool{}
	for i, r := range runes {
		alts, ok := similarCharacters[r]
		if !ok {
			continue
		}
		for _, alt := range alts {
			if alt == r {
				continue
			}
			variant := string(runes[:i]) + string(alt) + string(runes[i+1:])
			if variant != correct && !seen[variant] {
				seen[variant] = true
				out = append(out, variant)
			}
		}
	}
	return out
}
