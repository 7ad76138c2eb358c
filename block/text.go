package block

import (
	"fmt"
	"strconv"
	"strings"
)

////////////////////////////////////////////////////////////////
// Tokenizer

// token is one whitespace-delimited field of a text line. Quoted tokens keep
// embedded spaces and have their escapes resolved.
type token struct {
	Text   string
	Quoted bool
}

// splitTokens splits a line into tokens. Unquoted tokens have a trailing
// comma stripped; quoted tokens honor backslash escapes for quotes and
// backslashes.
func splitTokens(line string) []token {
	var toks []token
	i := 0
	for i < len(line) {
		switch c := line[i]; {
		case c == ' ' || c == '\t':
			i++
		case c == '"':
			i++
			var b strings.Builder
			for i < len(line) && line[i] != '"' {
				if line[i] == '\\' && i+1 < len(line) {
					i++
				}
				b.WriteByte(line[i])
				i++
			}
			if i < len(line) {
				i++ // closing quote
			}
			toks = append(toks, token{Text: b.String(), Quoted: true})
		default:
			j := i
			for j < len(line) && line[j] != ' ' && line[j] != '\t' {
				j++
			}
			toks = append(toks, token{Text: strings.TrimSuffix(line[i:j], ",")})
			i = j
		}
	}
	return toks
}

// quote renders a string for the text format, escaping embedded quotes and
// backslashes.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		if s[i] == '"' || s[i] == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	b.WriteByte('"')
	return b.String()
}

////////////////////////////////////////////////////////////////
// Line composition

// encodeText renders one block as a text line, without the trailing newline
// or any spacer lines.
func encodeText(b Block) string {
	rest := b.Spec.encText(b.Payload)
	if rest == "" {
		return b.Spec.Keyword
	}
	return b.Spec.Keyword + " " + rest
}

// Spacer rules. Certain kinds emit a blank line before or after themselves
// in the text form; the placement mirrors the reference tool's output so
// text files diff cleanly against it.
func spacerBefore(b Block) bool {
	switch b.Spec {
	case SpecFaceCount, SpecQuaternion:
		return true
	case SpecBoneIndex:
		return b.Int() == 0
	}
	return false
}

func spacerAfter(b Block) bool {
	switch b.Spec {
	case SpecComment, SpecVersion, SpecAxisZ:
		return true
	}
	return false
}

////////////////////////////////////////////////////////////////
// Per-kind text codecs

func parseInt(t token) (int, error) {
	return strconv.Atoi(t.Text)
}

func parseFloat(t token) (float32, error) {
	f, err := strconv.ParseFloat(t.Text, 32)
	return float32(f), err
}

func encTextNone(p Payload) string { return "" }

func decTextNone(tok []token) (Payload, error) {
	return None{}, nil
}

func encTextComment(p Payload) string { return string(p.(String)) }

func decTextString(tok []token) (Payload, error) {
	parts := make([]string, len(tok))
	for i, t := range tok {
		parts[i] = t.Text
	}
	return String(strings.Join(parts, " ")), nil
}

func encTextInt(p Payload) string { return strconv.Itoa(int(p.(Int))) }

func decTextInt(tok []token) (Payload, error) {
	if len(tok) != 1 {
		return nil, fmt.Errorf("want 1 value, got %d", len(tok))
	}
	v, err := parseInt(tok[0])
	if err != nil {
		return nil, err
	}
	return Int(v), nil
}

// decTextInt32Count keeps the diagnostic for an unparseable promoted count
// explicit: the reference behavior coerced it to zero silently.
func decTextInt32Count(tok []token) (Payload, error) {
	p, err := decTextInt(tok)
	if err != nil {
		return nil, fmt.Errorf("32-bit count: %w", err)
	}
	return p, nil
}

func encTextFloat(p Payload) string { return formatFloat(float32(p.(Float))) }

func decTextFloat(tok []token) (Payload, error) {
	if len(tok) != 1 {
		return nil, fmt.Errorf("want 1 value, got %d", len(tok))
	}
	f, err := parseFloat(tok[0])
	if err != nil {
		return nil, err
	}
	return Float(f), nil
}

func encTextVec2(p Payload) string {
	v := p.(Vec2)
	return formatFloat(v[0]) + ", " + formatFloat(v[1])
}

func decTextVec2(tok []token) (Payload, error) {
	if len(tok) != 2 {
		return nil, fmt.Errorf("want 2 values, got %d", len(tok))
	}
	var v Vec2
	for i := range v {
		f, err := parseFloat(tok[i])
		if err != nil {
			return nil, err
		}
		v[i] = f
	}
	return v, nil
}

func encTextVec3(p Payload) string {
	v := p.(Vec3)
	return formatFloat(v[0]) + ", " + formatFloat(v[1]) + ", " + formatFloat(v[2])
}

func decTextVec3(tok []token) (Payload, error) {
	if len(tok) != 3 {
		return nil, fmt.Errorf("want 3 values, got %d", len(tok))
	}
	var v Vec3
	for i := range v {
		f, err := parseFloat(tok[i])
		if err != nil {
			return nil, err
		}
		v[i] = f
	}
	return v, nil
}

func encTextVec4(p Payload) string {
	v := p.(Vec4)
	return formatFloat(v[0]) + ", " + formatFloat(v[1]) + ", " +
		formatFloat(v[2]) + ", " + formatFloat(v[3])
}

// Colors render space-separated, unlike vectors.
func encTextColor(p Payload) string {
	v := p.(Vec4)
	return formatFloat(v[0]) + " " + formatFloat(v[1]) + " " +
		formatFloat(v[2]) + " " + formatFloat(v[3])
}

func decTextVec4(tok []token) (Payload, error) {
	if len(tok) != 4 {
		return nil, fmt.Errorf("want 4 values, got %d", len(tok))
	}
	var v Vec4
	for i := range v {
		f, err := parseFloat(tok[i])
		if err != nil {
			return nil, err
		}
		v[i] = f
	}
	return v, nil
}

func encTextWeight(p Payload) string {
	v := p.(Weight)
	return strconv.Itoa(v.Bone) + " " + formatFloat(v.Value)
}

func decTextWeight(tok []token) (Payload, error) {
	if len(tok) != 2 {
		return nil, fmt.Errorf("want 2 values, got %d", len(tok))
	}
	bone, err := parseInt(tok[0])
	if err != nil {
		return nil, err
	}
	value, err := parseFloat(tok[1])
	if err != nil {
		return nil, err
	}
	return Weight{Bone: bone, Value: value}, nil
}

// Triangles render with two reserved zero fields, as the reference tool
// does.
func encTextTri(p Payload) string {
	v := p.(Face)
	return strconv.Itoa(v.Submesh) + " " + strconv.Itoa(v.Material) + " 0 0"
}

func decTextTri(tok []token) (Payload, error) {
	if len(tok) < 2 {
		return nil, fmt.Errorf("want at least 2 values, got %d", len(tok))
	}
	submesh, err := parseInt(tok[0])
	if err != nil {
		return nil, err
	}
	material, err := parseInt(tok[1])
	if err != nil {
		return nil, err
	}
	return Face{Submesh: submesh, Material: material}, nil
}

func encTextBoneInfo(p Payload) string {
	v := p.(BoneInfo)
	return strconv.Itoa(v.Index) + " " + strconv.Itoa(v.Parent) + " " + quote(v.Name)
}

func decTextBoneInfo(tok []token) (Payload, error) {
	if len(tok) != 3 {
		return nil, fmt.Errorf("want 3 values, got %d", len(tok))
	}
	index, err := parseInt(tok[0])
	if err != nil {
		return nil, err
	}
	parent, err := parseInt(tok[1])
	if err != nil {
		return nil, err
	}
	return BoneInfo{Index: index, Parent: parent, Name: tok[2].Text}, nil
}

func encTextIndexName(p Payload) string {
	v := p.(IndexName)
	return strconv.Itoa(v.Index) + " " + quote(v.Name)
}

func decTextIndexName(tok []token) (Payload, error) {
	if len(tok) != 2 {
		return nil, fmt.Errorf("want 2 values, got %d", len(tok))
	}
	index, err := parseInt(tok[0])
	if err != nil {
		return nil, err
	}
	return IndexName{Index: index, Name: tok[1].Text}, nil
}

func encTextMaterial(p Payload) string {
	v := p.(MaterialInfo)
	return strconv.Itoa(v.Index) + " " + quote(v.Name) + " " + quote(v.Type) + " " + quote(v.Images)
}

func decTextMaterial(tok []token) (Payload, error) {
	if len(tok) != 4 {
		return nil, fmt.Errorf("want 4 values, got %d", len(tok))
	}
	index, err := parseInt(tok[0])
	if err != nil {
		return nil, err
	}
	return MaterialInfo{
		Index:  index,
		Name:   tok[1].Text,
		Type:   tok[2].Text,
		Images: tok[3].Text,
	}, nil
}

func encTextUVSet(p Payload) string {
	v := p.(UVSet)
	var b strings.Builder
	b.WriteString(strconv.Itoa(len(v)))
	for _, uv := range v {
		b.WriteByte(' ')
		b.WriteString(formatFloat(uv[0]))
		b.WriteByte(' ')
		b.WriteString(formatFloat(uv[1]))
	}
	return b.String()
}

func decTextUVSet(tok []token) (Payload, error) {
	if len(tok) < 1 {
		return nil, fmt.Errorf("want a layer count")
	}
	n, err := parseInt(tok[0])
	if err != nil {
		return nil, err
	}
	if len(tok) != 1+2*n {
		return nil, fmt.Errorf("want %d uv values, got %d", 2*n, len(tok)-1)
	}
	v := make(UVSet, n)
	for i := 0; i < n; i++ {
		u, err := parseFloat(tok[1+2*i])
		if err != nil {
			return nil, err
		}
		w, err := parseFloat(tok[2+2*i])
		if err != nil {
			return nil, err
		}
		v[i] = [2]float32{u, w}
	}
	return v, nil
}
