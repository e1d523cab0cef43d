package model

import (
	"regexp"
	"strings"
)

// cssColorNames is the CSS3 extended color keyword list.
var cssColorNames = func() map[string]struct{} {
	names := strings.Fields(`
		aliceblue antiquewhite aqua aquamarine azure beige bisque black
		blanchedalmond blue blueviolet brown burlywood cadetblue chartreuse
		chocolate coral cornflowerblue cornsilk crimson cyan darkblue darkcyan
		darkgoldenrod darkgray darkgreen darkgrey darkkhaki darkmagenta
		darkolivegreen darkorange darkorchid darkred darksalmon darkseagreen
		darkslateblue darkslategray darkslategrey darkturquoise darkviolet
		deeppink deepskyblue dimgray dimgrey dodgerblue firebrick floralwhite
		forestgreen fuchsia gainsboro ghostwhite gold goldenrod gray green
		greenyellow grey honeydew hotpink indianred indigo ivory khaki lavender
		lavenderblush lawngreen lemonchiffon lightblue lightcoral lightcyan
		lightgoldenrodyellow lightgray lightgreen lightgrey lightpink
		lightsalmon lightseagreen lightskyblue lightslategray lightslategrey
		lightsteelblue lightyellow lime limegreen linen magenta maroon
		mediumaquamarine mediumblue mediumorchid mediumpurple mediumseagreen
		mediumslateblue mediumspringgreen mediumturquoise mediumvioletred
		midnightblue mintcream mistyrose moccasin navajowhite navy oldlace
		olive olivedrab orange orangered orchid palegoldenrod palegreen
		paleturquoise palevioletred papayawhip peachpuff peru pink plum
		powderblue purple red rosybrown royalblue saddlebrown salmon sandybrown
		seagreen seashell sienna silver skyblue slateblue slategray slategrey
		snow springgreen steelblue tan teal thistle tomato turquoise violet
		wheat white whitesmoke yellow yellowgreen`)
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}()

// Hex triplets and the signed ARGB integers Android calendars write.
var colorTokenPattern = regexp.MustCompile(`^(#[0-9a-fA-F]{3}|#[0-9a-fA-F]{6}|-?[0-9]{1,10})$`)

// normalizeColor returns the canonical form of a user-entered color: a
// lowercase CSS3 name, a hex triplet or an ARGB integer. Empty means none.
func normalizeColor(s string) (string, bool) {
	if s == "" {
		return "", true
	}
	if colorTokenPattern.MatchString(s) {
		return s, true
	}
	lower := strings.ToLower(s)
	if _, ok := cssColorNames[lower]; ok {
		return lower, true
	}
	return "", false
}
