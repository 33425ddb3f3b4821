package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"depyler/internal/diag"
	"depyler/internal/hir"
	"depyler/internal/types"
)

// render produces the value form of an expression. String literals stay
// borrowed here; renderOwned promotes them where an owned value is
// required.
func (fe *funcEmitter) render(x *hir.Expr) string {
	switch d := x.Data.(type) {
	case hir.LiteralData:
		return fe.renderLiteral(x, d)
	case hir.VarData:
		return fe.renderVar(x, d)
	case hir.AttributeData:
		return fe.renderAttribute(x, d)
	case hir.IndexData:
		return fe.renderIndex(x, d)
	case hir.SliceData:
		return fe.renderSlice(x, d)
	case hir.UnaryData:
		return fe.renderUnary(d)
	case hir.BinaryData:
		return fe.renderBinary(x, d)
	case hir.BoolData:
		parts := make([]string, len(d.Values))
		for i, v := range d.Values {
			parts[i] = fe.boolize(v)
		}
		op := " && "
		if d.Op == hir.BoolOr {
			op = " || "
		}
		return strings.Join(parts, op)
	case hir.CallData:
		return fe.renderCall(x, d)
	case hir.MethodCallData:
		return fe.renderMethodCall(x, d)
	case hir.ListData:
		return fe.renderList(x, d)
	case hir.TupleData:
		parts := make([]string, len(d.Elems))
		for i, el := range d.Elems {
			parts[i] = fe.renderOwned(el)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case hir.SetData:
		return fe.renderSet(d)
	case hir.DictData:
		return fe.renderDict(x, d)
	case hir.CompData:
		return fe.renderComp(x, d)
	case hir.FStringData:
		return fe.renderFString(d)
	case hir.LambdaData:
		params := make([]string, len(d.Params))
		for i, p := range d.Params {
			params[i] = p.Name
			fe.declared[p.Name] = true
		}
		return "|" + strings.Join(params, ", ") + "| " + fe.render(d.Body)
	case hir.IfData:
		return fmt.Sprintf("if %s { %s } else { %s }",
			fe.boolize(d.Cond), fe.renderOwned(d.Then), fe.renderOwned(d.Else))
	case hir.NamedData:
		fe.pendingLets = append(fe.pendingLets, fmt.Sprintf("let %s = %s;", d.Name, fe.renderOwned(d.Value)))
		fe.declared[d.Name] = true
		return d.Name
	case hir.StarredData:
		fe.e.ctx.Fallback("star expansion emitted as the bare value")
		return fe.render(d.Value)
	default:
		fe.errorf(diag.GenConstraintViolation, x.Span, "cannot emit %s expression", x.Kind)
		return "()"
	}
}

// renderOwned renders x and promotes borrowed forms to owned values.
func (fe *funcEmitter) renderOwned(x *hir.Expr) string {
	s := fe.render(x)
	switch d := x.Data.(type) {
	case hir.LiteralData:
		if d.Kind == hir.LitStr {
			return s + ".to_string()"
		}
	case hir.VarData:
		if fe.guarded[d.Name] != nil {
			return s
		}
		if x.Type != nil && !x.Type.IsCopy() {
			switch fe.plan.Mode(x.ID) {
			case hir.UseMove, hir.UseCloneOnUse:
				return s
			default:
				if x.Type.Kind == types.KindStr && fe.isBorrowedParam(d.Name) {
					return s + ".to_string()"
				}
				if x.Type.Kind == types.KindList && fe.isBorrowedParam(d.Name) {
					return s + ".to_vec()"
				}
				return s + ".clone()"
			}
		}
	}
	return s
}

func (fe *funcEmitter) isBorrowedParam(name string) bool {
	if fe.fn == nil {
		return false
	}
	li := fe.fn.Locals[name]
	return li != nil && li.IsParam && fe.plan.ParamModeOf(name) == hir.ParamBorrowed
}

// coerce renders x for a position of type want, inserting numeric
// widening and carrier or option wrapping as needed.
func (fe *funcEmitter) coerce(x *hir.Expr, want *types.Type) string {
	if want == nil {
		return fe.renderOwned(x)
	}
	if isDynamic(want) && !isDynamic(x.Type) {
		return fe.e.ctx.carrierWrap(fe.renderOwned(x), x.Type)
	}
	if want.Kind == types.KindFloat && x.Type != nil && x.Type.Kind == types.KindInt {
		if lit, ok := x.Data.(hir.LiteralData); ok && lit.Kind == hir.LitInt {
			return floatText(lit.Text)
		}
		return "(" + fe.render(x) + ") as f64"
	}
	if want.Kind == types.KindOptional && (x.Type == nil || x.Type.Kind != types.KindOptional) {
		if isNoneLit(x) {
			return "None"
		}
		return "Some(" + fe.coerce(x, want.Elem()) + ")"
	}
	return fe.renderOwned(x)
}

// floatText turns an integer literal text into a float literal.
func floatText(text string) string {
	if strings.ContainsAny(text, ".eE") {
		return text
	}
	return text + ".0"
}

// boolize renders x as a bool, applying truthiness for non-bool types.
func (fe *funcEmitter) boolize(x *hir.Expr) string {
	s := fe.render(x)
	t := x.Type
	if t == nil {
		return s
	}
	switch t.Kind {
	case types.KindBool:
		return s
	case types.KindInt:
		return s + " != 0"
	case types.KindFloat:
		return s + " != 0.0"
	case types.KindStr, types.KindList, types.KindDict, types.KindSet:
		return "!" + s + ".is_empty()"
	case types.KindOptional:
		return s + ".is_some()"
	default:
		return s
	}
}

func (fe *funcEmitter) renderLiteral(x *hir.Expr, d hir.LiteralData) string {
	switch d.Kind {
	case hir.LitInt:
		return d.Text
	case hir.LitFloat:
		return floatText(d.Text)
	case hir.LitBool:
		if d.Bool {
			return "true"
		}
		return "false"
	case hir.LitStr:
		return strconv.Quote(d.Str)
	case hir.LitBytes:
		parts := make([]string, len(d.Bytes))
		for i, b := range d.Bytes {
			parts[i] = strconv.Itoa(int(b))
		}
		return "vec![" + strings.Join(parts, ", ") + "]"
	case hir.LitNone:
		return "None"
	default:
		return "()"
	}
}

func (fe *funcEmitter) renderVar(x *hir.Expr, d hir.VarData) string {
	name := d.Name
	if inner := fe.guarded[name]; inner != nil {
		if inner.IsCopy() {
			return name + ".unwrap()"
		}
		return name + ".clone().unwrap()"
	}
	if fe.plan.Mode(x.ID) == hir.UseCloneOnUse {
		return name + ".clone()"
	}
	return name
}

func (fe *funcEmitter) renderIndex(x *hir.Expr, d hir.IndexData) string {
	obj := fe.render(d.Object)
	if d.Object.Type != nil && d.Object.Type.Kind == types.KindDict {
		key := fe.renderKeyRef(d.Index)
		s := obj + "[" + key + "]"
		if x.Type != nil && !x.Type.IsCopy() {
			s += ".clone()"
		}
		return s
	}
	if d.Object.Type != nil && d.Object.Type.Kind == types.KindTuple {
		if lit, ok := d.Index.Data.(hir.LiteralData); ok && lit.Kind == hir.LitInt {
			return obj + "." + lit.Text
		}
	}
	s := obj + "[" + fe.indexPos(obj, d.Index) + "]"
	if x.Type != nil && !x.Type.IsCopy() {
		s += ".clone()"
	}
	return s
}

// renderKeyRef renders a dict key in borrow position.
func (fe *funcEmitter) renderKeyRef(key *hir.Expr) string {
	if lit, ok := key.Data.(hir.LiteralData); ok && lit.Kind == hir.LitStr {
		return strconv.Quote(lit.Str)
	}
	return "&" + fe.render(key)
}

// indexPos renders a sequence index, translating negative literals into
// length-relative positions.
func (fe *funcEmitter) indexPos(obj string, idx *hir.Expr) string {
	if u, ok := idx.Data.(hir.UnaryData); ok && u.Op == hir.UnaryNeg {
		if lit, ok := u.Operand.Data.(hir.LiteralData); ok && lit.Kind == hir.LitInt {
			return fmt.Sprintf("%s.len() - %s", obj, lit.Text)
		}
	}
	return fe.usize(fe.render(idx), idx)
}

// usize appends a cast for integer-typed index expressions. Literal
// indices stay bare so they infer as usize.
func (fe *funcEmitter) usize(s string, x *hir.Expr) string {
	if lit, ok := x.Data.(hir.LiteralData); ok && lit.Kind == hir.LitInt {
		return s
	}
	if x.Type != nil && x.Type.Kind == types.KindInt {
		return "(" + s + ") as usize"
	}
	return s
}

func (fe *funcEmitter) renderSlice(x *hir.Expr, d hir.SliceData) string {
	obj := fe.render(d.Object)
	isStr := d.Object.Type != nil && d.Object.Type.Kind == types.KindStr
	if d.Step != nil {
		lo := "0"
		if d.Lower != nil {
			lo = fe.usize(fe.render(d.Lower), d.Lower)
		}
		step := fe.render(d.Step)
		fe.e.ctx.Fallback("stepped slice materialized through an iterator chain")
		return fmt.Sprintf("%s.iter().skip(%s).step_by((%s) as usize).cloned().collect::<Vec<_>>()", obj, lo, step)
	}
	var lo, hi string
	if d.Lower != nil {
		lo = fe.slicePos(obj, d.Lower)
	}
	if d.Upper != nil {
		hi = fe.slicePos(obj, d.Upper)
	}
	rangeSrc := lo + ".." + hi
	if isStr {
		return obj + "[" + rangeSrc + "].to_string()"
	}
	return obj + "[" + rangeSrc + "].to_vec()"
}

func (fe *funcEmitter) slicePos(obj string, bound *hir.Expr) string {
	if u, ok := bound.Data.(hir.UnaryData); ok && u.Op == hir.UnaryNeg {
		if lit, ok := u.Operand.Data.(hir.LiteralData); ok && lit.Kind == hir.LitInt {
			return fmt.Sprintf("%s.len() - %s", obj, lit.Text)
		}
	}
	return fe.usize(fe.render(bound), bound)
}

func (fe *funcEmitter) renderUnary(d hir.UnaryData) string {
	switch d.Op {
	case hir.UnaryNeg:
		return "-" + fe.parenRender(d.Operand)
	case hir.UnaryPos:
		return fe.render(d.Operand)
	case hir.UnaryNot:
		return "!(" + fe.boolize(d.Operand) + ")"
	case hir.UnaryInvert:
		return "!" + fe.parenRender(d.Operand)
	}
	return fe.render(d.Operand)
}

// parenRender parenthesizes compound operands.
func (fe *funcEmitter) parenRender(x *hir.Expr) string {
	s := fe.render(x)
	switch x.Kind {
	case hir.ExprLiteral, hir.ExprVar, hir.ExprCall, hir.ExprMethodCall, hir.ExprAttribute, hir.ExprIndex:
		return s
	}
	return "(" + s + ")"
}

func (fe *funcEmitter) renderBinary(x *hir.Expr, d hir.BinaryData) string {
	if d.Op.IsComparison() {
		return fe.renderComparison(d)
	}
	lt, rt := d.Left.Type, d.Right.Type
	bothInt := typeKind(lt) == types.KindInt && typeKind(rt) == types.KindInt
	switch d.Op {
	case hir.OpAdd:
		switch {
		case typeKind(lt) == types.KindStr:
			return fmt.Sprintf("format!(\"{}{}\", %s, %s)", fe.render(d.Left), fe.render(d.Right))
		case typeKind(lt) == types.KindList:
			return fmt.Sprintf("[%s, %s].concat()", fe.renderOwned(d.Left), fe.renderOwned(d.Right))
		}
	case hir.OpMul:
		if typeKind(lt) == types.KindStr {
			return fmt.Sprintf("%s.repeat((%s) as usize)", fe.parenRender(d.Left), fe.render(d.Right))
		}
		if typeKind(lt) == types.KindList {
			return fmt.Sprintf("%s.repeat((%s) as usize)", fe.parenRender(d.Left), fe.render(d.Right))
		}
	case hir.OpDiv:
		if bothInt {
			return fmt.Sprintf("(%s) as f64 / (%s) as f64", fe.render(d.Left), fe.render(d.Right))
		}
		return fe.numOperand(d.Left, x.Type) + " / " + fe.numOperand(d.Right, x.Type)
	case hir.OpFloorDiv:
		if bothInt {
			return fmt.Sprintf("%s.div_euclid(%s)", fe.parenRender(d.Left), fe.render(d.Right))
		}
		return fmt.Sprintf("(%s / %s).floor()", fe.numOperand(d.Left, x.Type), fe.numOperand(d.Right, x.Type))
	case hir.OpMod:
		if typeKind(lt) == types.KindStr {
			fe.e.ctx.Fallback("percent formatting emitted as a single format! argument")
			return fmt.Sprintf("format!(\"{}\", %s)", fe.render(d.Right))
		}
		if bothInt {
			return fmt.Sprintf("%s.rem_euclid(%s)", fe.parenRender(d.Left), fe.render(d.Right))
		}
		return fe.numOperand(d.Left, x.Type) + " % " + fe.numOperand(d.Right, x.Type)
	case hir.OpPow:
		if bothInt {
			return fmt.Sprintf("%s.pow((%s) as u32)", fe.parenRender(d.Left), fe.render(d.Right))
		}
		return fmt.Sprintf("%s.powf(%s)", fe.parenRender(d.Left), fe.numOperand(d.Right, types.Float))
	}
	return fe.numOperand(d.Left, x.Type) + " " + d.Op.String() + " " + fe.numOperand(d.Right, x.Type)
}

// numOperand renders an arithmetic operand coerced to the result type.
func (fe *funcEmitter) numOperand(x *hir.Expr, result *types.Type) string {
	if typeKind(result) == types.KindFloat && typeKind(x.Type) == types.KindInt {
		if lit, ok := x.Data.(hir.LiteralData); ok && lit.Kind == hir.LitInt {
			return floatText(lit.Text)
		}
		return "(" + fe.render(x) + ") as f64"
	}
	return fe.parenRender(x)
}

func typeKind(t *types.Type) types.Kind {
	if t == nil {
		return types.KindUnknown
	}
	return t.Kind
}

func elemTypeOf(t *types.Type) *types.Type {
	if t != nil && (t.Kind == types.KindList || t.Kind == types.KindSet) {
		return t.Elem()
	}
	return nil
}

func (fe *funcEmitter) renderComparison(d hir.BinaryData) string {
	switch d.Op {
	case hir.OpIn, hir.OpNotIn:
		s := fe.renderContainment(d)
		if d.Op == hir.OpNotIn {
			return "!" + s
		}
		return s
	case hir.OpIs, hir.OpIsNot:
		if isNoneLit(d.Right) {
			if d.Op == hir.OpIs {
				return fe.render(d.Left) + ".is_none()"
			}
			return fe.render(d.Left) + ".is_some()"
		}
		op := "=="
		if d.Op == hir.OpIsNot {
			op = "!="
		}
		return fe.render(d.Left) + " " + op + " " + fe.render(d.Right)
	}
	left, right := fe.render(d.Left), fe.render(d.Right)
	// mixed numeric comparison widens the integer side
	if typeKind(d.Left.Type) == types.KindInt && typeKind(d.Right.Type) == types.KindFloat {
		left = "(" + left + ") as f64"
	}
	if typeKind(d.Left.Type) == types.KindFloat && typeKind(d.Right.Type) == types.KindInt {
		right = "(" + right + ") as f64"
	}
	return left + " " + d.Op.String() + " " + right
}

func (fe *funcEmitter) renderContainment(d hir.BinaryData) string {
	container := fe.render(d.Right)
	switch typeKind(d.Right.Type) {
	case types.KindDict:
		return container + ".contains_key(" + fe.renderKeyRef(d.Left) + ")"
	case types.KindStr:
		if lit, ok := d.Left.Data.(hir.LiteralData); ok && lit.Kind == hir.LitStr {
			return container + ".contains(" + strconv.Quote(lit.Str) + ")"
		}
		return container + ".contains(&" + fe.render(d.Left) + ")"
	default:
		return container + ".contains(&" + fe.render(d.Left) + ")"
	}
}

func (fe *funcEmitter) renderList(x *hir.Expr, d hir.ListData) string {
	for _, el := range d.Elems {
		if el.Kind == hir.ExprStarred {
			return fe.renderListWithSpreads(d)
		}
	}
	hasNone, heterogeneous := displayShape(d.Elems)
	switch {
	case heterogeneous:
		if !fe.e.ctx.NasaMode {
			fe.e.ctx.Fallback("heterogeneous list emitted through the dynamic carrier")
		}
		parts := make([]string, len(d.Elems))
		for i, el := range d.Elems {
			parts[i] = fe.e.ctx.carrierWrap(fe.renderOwned(el), el.Type)
		}
		return "vec![" + strings.Join(parts, ", ") + "]"
	case hasNone:
		parts := make([]string, len(d.Elems))
		for i, el := range d.Elems {
			if isNoneLit(el) {
				parts[i] = "None"
			} else {
				parts[i] = "Some(" + fe.renderOwned(el) + ")"
			}
		}
		return "vec![" + strings.Join(parts, ", ") + "]"
	default:
		elem := elemTypeOf(x.Type)
		parts := make([]string, len(d.Elems))
		for i, el := range d.Elems {
			parts[i] = fe.coerce(el, elem)
		}
		return "vec![" + strings.Join(parts, ", ") + "]"
	}
}

func (fe *funcEmitter) renderListWithSpreads(d hir.ListData) string {
	var b strings.Builder
	b.WriteString("{ let mut _v = Vec::new(); ")
	for _, el := range d.Elems {
		if st, ok := el.Data.(hir.StarredData); ok {
			fmt.Fprintf(&b, "_v.extend(%s); ", fe.renderOwned(st.Value))
		} else {
			fmt.Fprintf(&b, "_v.push(%s); ", fe.renderOwned(el))
		}
	}
	b.WriteString("_v }")
	return b.String()
}

// displayShape inspects display elements for None literals and type
// disagreement.
func displayShape(elems []*hir.Expr) (hasNone, heterogeneous bool) {
	var base *types.Type
	for _, el := range elems {
		if isNoneLit(el) {
			hasNone = true
			continue
		}
		if el.Type == nil {
			continue
		}
		if base == nil {
			base = el.Type
			continue
		}
		if !types.Equal(base, el.Type) && !(base.IsNumeric() && el.Type.IsNumeric()) {
			heterogeneous = true
		}
	}
	return hasNone, heterogeneous
}

func (fe *funcEmitter) renderSet(d hir.SetData) string {
	fe.e.ctx.Needs.HashSet = true
	_, heterogeneous := displayShape(d.Elems)
	parts := make([]string, len(d.Elems))
	for i, el := range d.Elems {
		if heterogeneous {
			parts[i] = fe.e.ctx.carrierWrap(fe.renderOwned(el), el.Type)
		} else {
			parts[i] = fe.renderOwned(el)
		}
	}
	return "HashSet::from([" + strings.Join(parts, ", ") + "])"
}

func (fe *funcEmitter) renderDict(x *hir.Expr, d hir.DictData) string {
	fe.e.ctx.Needs.HashMap = true
	for _, item := range d.Items {
		if item.Key == nil {
			return fe.renderDictWithSpreads(d)
		}
	}
	wrap := fe.e.ctx.ForceDictValueOptionWrap
	for _, item := range d.Items {
		if isNoneLit(item.Value) {
			wrap = true
		}
	}
	if wrap {
		fe.e.ctx.ForceDictValueOptionWrap = true
	}
	parts := make([]string, len(d.Items))
	for i, item := range d.Items {
		v := fe.renderOwned(item.Value)
		if wrap {
			if isNoneLit(item.Value) {
				v = "None"
			} else {
				v = "Some(" + v + ")"
			}
		}
		parts[i] = "(" + fe.renderOwned(item.Key) + ", " + v + ")"
	}
	return "HashMap::from([" + strings.Join(parts, ", ") + "])"
}

func (fe *funcEmitter) renderDictWithSpreads(d hir.DictData) string {
	var b strings.Builder
	b.WriteString("{ let mut _m = HashMap::new(); ")
	for _, item := range d.Items {
		if item.Key == nil {
			fmt.Fprintf(&b, "_m.extend(%s); ", fe.renderOwned(item.Value))
		} else {
			fmt.Fprintf(&b, "_m.insert(%s, %s); ", fe.renderOwned(item.Key), fe.renderOwned(item.Value))
		}
	}
	b.WriteString("_m }")
	return b.String()
}

// renderComp materializes a comprehension as a block that accumulates
// into its container.
func (fe *funcEmitter) renderComp(x *hir.Expr, d hir.CompData) string {
	saved := fe.e.buf.String()
	savedIndent := fe.e.indent
	fe.e.buf.Reset()
	fe.e.indent = 0

	fe.e.open("{")
	switch d.Kind {
	case hir.CompSet:
		fe.e.ctx.Needs.HashSet = true
		fe.e.line("let mut _out = HashSet::new();")
	case hir.CompDict:
		fe.e.ctx.Needs.HashMap = true
		fe.e.line("let mut _out = HashMap::new();")
	default:
		fe.e.line("let mut _out = Vec::new();")
	}
	fe.emitCompClauses(d, 0)
	fe.e.line("_out")
	fe.e.close("")

	src := strings.TrimRight(fe.e.take(), "\n")
	fe.e.buf.WriteString(saved)
	fe.e.indent = savedIndent
	return reindent(src, savedIndent)
}

func (fe *funcEmitter) emitCompClauses(d hir.CompData, i int) {
	if i == len(d.Clauses) {
		switch d.Kind {
		case hir.CompSet:
			fe.e.line("_out.insert(%s);", fe.renderOwned(d.Elt))
		case hir.CompDict:
			fe.e.line("_out.insert(%s, %s);", fe.renderOwned(d.Elt), fe.renderOwned(d.Value))
		default:
			fe.e.line("_out.push(%s);", fe.renderOwned(d.Elt))
		}
		return
	}
	cl := d.Clauses[i]
	pattern, iterSrc := fe.forHeader(cl.Target, cl.Iter)
	fe.e.open("for %s in %s {", pattern, iterSrc)
	if len(cl.Ifs) > 0 {
		conds := make([]string, len(cl.Ifs))
		for j, c := range cl.Ifs {
			conds[j] = fe.boolize(c)
		}
		fe.e.open("if %s {", strings.Join(conds, " && "))
		fe.emitCompClauses(d, i+1)
		fe.e.close("")
	} else {
		fe.emitCompClauses(d, i+1)
	}
	fe.e.close("")
}

// reindent shifts a rendered block so its continuation lines align with
// the insertion point.
func reindent(src string, indent int) string {
	lines := strings.Split(src, "\n")
	pad := strings.Repeat("    ", indent)
	for i := 1; i < len(lines); i++ {
		lines[i] = pad + lines[i]
	}
	return strings.Join(lines, "\n")
}

func (fe *funcEmitter) renderFString(d hir.FStringData) string {
	var format strings.Builder
	var args []string
	for _, p := range d.Parts {
		if p.Expr == nil {
			format.WriteString(escapeBraces(p.Literal))
			continue
		}
		spec := ""
		if p.Spec != "" {
			spec = ":" + p.Spec
		} else if p.Conv == 'r' {
			spec = ":?"
		}
		format.WriteString("{" + spec + "}")
		args = append(args, fe.render(p.Expr))
	}
	if len(args) == 0 {
		return "format!(" + strconv.Quote(format.String()) + ")"
	}
	return "format!(" + strconv.Quote(format.String()) + ", " + strings.Join(args, ", ") + ")"
}

func escapeBraces(s string) string {
	s = strings.ReplaceAll(s, "{", "{{")
	return strings.ReplaceAll(s, "}", "}}")
}
