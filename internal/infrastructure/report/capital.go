package report

import (
	"math"
	"strings"
)

var (
	capitalDigits = []string{"零", "壹", "贰", "叁", "肆", "伍", "陆", "柒", "捌", "玖"}
	capitalUnits  = []string{"", "拾", "佰", "仟"}
	capitalGroups = []string{"", "万", "亿", "万亿"}
)

// CapitalizeYuan renders an amount in the uppercase form used on Chinese
// payment documents (大写金额), e.g. 10005.5 -> 壹万零伍元伍角
func CapitalizeYuan(amount float64) string {
	negative := amount < 0
	fen := int64(math.Round(math.Abs(amount) * 100))
	yuan := fen / 100
	jiao := fen / 10 % 10
	cents := fen % 10

	var b strings.Builder
	if negative {
		b.WriteString("负")
	}

	if yuan == 0 && jiao == 0 && cents == 0 {
		return "零元整"
	}
	if yuan > 0 {
		b.WriteString(capitalInteger(yuan))
		b.WriteString("元")
	}

	switch {
	case jiao == 0 && cents == 0:
		b.WriteString("整")
	case jiao == 0:
		if yuan > 0 {
			b.WriteString("零")
		}
		b.WriteString(capitalDigits[cents] + "分")
	default:
		b.WriteString(capitalDigits[jiao] + "角")
		if cents > 0 {
			b.WriteString(capitalDigits[cents] + "分")
		}
	}
	return b.String()
}

// capitalInteger converts n > 0 in groups of four digits
func capitalInteger(n int64) string {
	var groups []int64
	for n > 0 {
		groups = append(groups, n%10000)
		n /= 10000
	}

	var b strings.Builder
	skipped := false
	for i := len(groups) - 1; i >= 0; i-- {
		g := groups[i]
		if g == 0 {
			skipped = true
			continue
		}
		if b.Len() > 0 && (skipped || g < 1000) {
			b.WriteString("零")
		}
		skipped = false
		b.WriteString(capitalGroup(g))
		b.WriteString(capitalGroups[i])
	}
	return b.String()
}

func capitalGroup(g int64) string {
	var b strings.Builder
	pow := int64(1000)
	started, zero := false, false
	for pos := 3; pos >= 0; pos-- {
		d := g / pow % 10
		pow /= 10
		if d == 0 {
			if started {
				zero = true
			}
			continue
		}
		if zero {
			b.WriteString("零")
			zero = false
		}
		b.WriteString(capitalDigits[d] + capitalUnits[pos])
		started = true
	}
	return b.String()
}
