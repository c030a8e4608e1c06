package parser

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/huandu/go-clone"
	pg_query "github.com/pganalyze/pg_query_go/v5"

	"github.com/daviszhen/pipegen/pkg/common"
	"github.com/daviszhen/pipegen/pkg/plan"
)

// Schema resolves table names during binding.
type Schema interface {
	Schema(table string) ([]string, []common.LType, error)
}

// Plan parses sql and binds its only statement.
func Plan(sql string, schema Schema) (*plan.LogicalOperator, error) {
	stmt, err := ParseOne(sql)
	if err != nil {
		return nil, err
	}
	return Bind(stmt, schema)
}

// Bind turns a SELECT statement into a logical plan. The supported subset is
// select-project-join-aggregate: FROM lists and inner joins with equality
// conditions, WHERE, GROUP BY, HAVING, count/sum/avg/min/max. ORDER BY and
// LIMIT are bound into plan nodes that the compiler rejects.
func Bind(stmt *pg_query.RawStmt, schema Schema) (*plan.LogicalOperator, error) {
	sel := stmt.GetStmt().GetSelectStmt()
	if sel == nil {
		return nil, errors.Newf("usp statement %T", stmt.GetStmt().GetNode())
	}
	b := &binder{schema: schema}
	return b.bindSelect(sel)
}

type binding struct {
	alias  string
	names  []string
	types  []common.LType
	offset int
}

// scope lists the relations visible to an expression, in the column order of
// the operator the expression is evaluated on.
type scope struct {
	bindings []*binding
	width    int
}

func (s *scope) add(bind *binding) {
	bind.offset = s.width
	s.bindings = append(s.bindings, bind)
	s.width += len(bind.names)
}

func (s *scope) merge(o *scope) {
	for _, bind := range o.bindings {
		s.add(&binding{alias: bind.alias, names: bind.names, types: bind.types})
	}
}

func (s *scope) column(table, name string) (*plan.Expr, error) {
	var found *plan.Expr
	for _, bind := range s.bindings {
		if table != "" && !strings.EqualFold(table, bind.alias) {
			continue
		}
		for i, col := range bind.names {
			if !strings.EqualFold(col, name) {
				continue
			}
			if found != nil {
				return nil, errors.Newf("column reference %q is ambiguous", name)
			}
			found = plan.Col(bind.offset+i, bind.types[i], col)
		}
	}
	if found == nil {
		if table != "" {
			return nil, errors.Newf("column %s.%s does not exist", table, name)
		}
		return nil, errors.Newf("column %s does not exist", name)
	}
	return found, nil
}

type binder struct {
	schema Schema
	scope  *scope

	//aggregate state of the current select
	aggregating bool
	groupBys    []*plan.Expr
	aggs        []*plan.Expr
}

func (b *binder) bindSelect(sel *pg_query.SelectStmt) (*plan.LogicalOperator, error) {
	switch {
	case sel.Op != pg_query.SetOperation_SETOP_NONE:
		return nil, errors.New("usp set operation")
	case sel.WithClause != nil:
		return nil, errors.New("usp with clause")
	case len(sel.ValuesLists) != 0:
		return nil, errors.New("usp values list")
	case len(sel.DistinctClause) != 0:
		return nil, errors.New("usp distinct")
	case len(sel.FromClause) == 0:
		return nil, errors.New("select without from")
	}

	root, err := b.bindFrom(sel.FromClause, sel.WhereClause)
	if err != nil {
		return nil, err
	}

	targets, err := b.expandStar(sel.TargetList)
	if err != nil {
		return nil, err
	}

	grouped := len(sel.GroupClause) != 0 || sel.HavingClause != nil
	for _, target := range targets {
		grouped = grouped || hasAgg(target.GetVal())
	}

	var having *plan.Expr
	if grouped {
		for _, node := range sel.GroupClause {
			if pos := node.GetAConst().GetIval(); pos != nil {
				if pos.Ival < 1 || int(pos.Ival) > len(targets) {
					return nil, errors.Newf("group by position %d is not in select list", pos.Ival)
				}
				node = targets[pos.Ival-1].GetVal()
			}
			if hasAgg(node) {
				return nil, errors.New("aggregate functions are not allowed in group by")
			}
			e, err := b.bindExpr(node)
			if err != nil {
				return nil, err
			}
			if e.DataTyp.Id == common.LTID_BOOLEAN {
				return nil, errors.Newf("group by boolean expression %s", e)
			}
			b.groupBys = append(b.groupBys, e)
		}
		b.aggregating = true
	}

	projects := make([]*plan.Expr, 0, len(targets))
	for _, target := range targets {
		e, err := b.bindExpr(target.GetVal())
		if err != nil {
			return nil, err
		}
		projects = append(projects, e.As(targetName(target)))
	}

	if grouped {
		if sel.HavingClause != nil {
			having, err = b.bindExpr(sel.HavingClause)
			if err != nil {
				return nil, err
			}
			if having.DataTyp.Id != common.LTID_BOOLEAN {
				return nil, errors.Newf("having condition %s is not boolean", having)
			}
		}
		if len(b.aggs) == 0 {
			b.aggs = append(b.aggs, plan.CountStar())
		}
		root = plan.Aggregate(root, b.groupBys, b.aggs...)
		if having != nil {
			root = plan.Filter(root, having)
		}
		b.aggregating = false
	}
	root = plan.Project(root, projects...)

	if len(sel.SortClause) != 0 {
		orderBys, err := bindOrder(sel.SortClause, root)
		if err != nil {
			return nil, err
		}
		root = &plan.LogicalOperator{
			Typ:      plan.LOT_Order,
			Children: []*plan.LogicalOperator{root},
			OrderBys: orderBys,
		}
	}
	if sel.LimitOffset != nil {
		return nil, errors.New("usp offset")
	}
	if sel.LimitCount != nil {
		n, ok := intConst(sel.LimitCount)
		if !ok || n < 0 {
			return nil, errors.New("limit must be a non negative integer")
		}
		root = plan.Limit(root, n)
	}
	return root, nil
}

func targetName(target *pg_query.ResTarget) string {
	if target.Name != "" {
		return target.Name
	}
	switch node := target.GetVal().GetNode().(type) {
	case *pg_query.Node_ColumnRef:
		fields := node.ColumnRef.GetFields()
		return fields[len(fields)-1].GetString_().GetSval()
	case *pg_query.Node_FuncCall:
		return funcName(node.FuncCall)
	default:
		return "?column?"
	}
}

func (b *binder) expandStar(list []*pg_query.Node) ([]*pg_query.ResTarget, error) {
	ret := make([]*pg_query.ResTarget, 0, len(list))
	for _, node := range list {
		target := node.GetResTarget()
		if target == nil {
			return nil, errors.Newf("usp target %T", node.GetNode())
		}
		fields := target.GetVal().GetColumnRef().GetFields()
		if len(fields) == 0 || fields[len(fields)-1].GetAStar() == nil {
			ret = append(ret, target)
			continue
		}
		table := ""
		if len(fields) == 2 {
			table = fields[0].GetString_().GetSval()
		}
		matched := false
		for _, bind := range b.scope.bindings {
			if table != "" && !strings.EqualFold(table, bind.alias) {
				continue
			}
			matched = true
			for _, name := range bind.names {
				ret = append(ret, &pg_query.ResTarget{
					Name: name,
					Val:  columnRef(bind.alias, name),
				})
			}
		}
		if !matched {
			return nil, errors.Newf("missing from clause entry for %q", table)
		}
	}
	return ret, nil
}

func columnRef(table, name string) *pg_query.Node {
	str := func(s string) *pg_query.Node {
		return &pg_query.Node{Node: &pg_query.Node_String_{String_: &pg_query.String{Sval: s}}}
	}
	return &pg_query.Node{
		Node: &pg_query.Node_ColumnRef{
			ColumnRef: &pg_query.ColumnRef{
				Fields: []*pg_query.Node{str(table), str(name)},
			},
		},
	}
}

// bindFrom builds the join tree of the from list. Items of a comma separated
// list are joined left-deep on the where equalities connecting them; the
// rest of the where clause becomes a filter over the joins.
func (b *binder) bindFrom(from []*pg_query.Node, where *pg_query.Node) (*plan.LogicalOperator, error) {
	roots := make([]*plan.LogicalOperator, 0, len(from))
	scopes := make([]*scope, 0, len(from))
	b.scope = &scope{}
	for _, node := range from {
		root, sc, err := b.bindTable(node)
		if err != nil {
			return nil, err
		}
		roots = append(roots, root)
		scopes = append(scopes, sc)
		b.scope.merge(sc)
	}

	var conds []*plan.Expr
	if where != nil {
		if hasAgg(where) {
			return nil, errors.New("aggregate functions are not allowed in where")
		}
		cond, err := b.bindExpr(where)
		if err != nil {
			return nil, err
		}
		if cond.DataTyp.Id != common.LTID_BOOLEAN {
			return nil, errors.Newf("where condition %s is not boolean", cond)
		}
		conds = plan.SplitAnd(cond)
	}

	root := roots[0]
	width := scopes[0].width
	for i := 1; i < len(roots); i++ {
		var on []*plan.Expr
		on, conds = splitJoinConds(conds, width, scopes[i].width)
		if len(on) == 0 {
			return nil, errors.Newf("no equality condition joins %s", scopes[i].bindings[0].alias)
		}
		root = plan.Join(root, roots[i], plan.LOT_JoinTypeInner, on...)
		width += scopes[i].width
	}
	if len(conds) != 0 {
		root = plan.Filter(root, conds...)
	}
	return root, nil
}

func (b *binder) bindTable(node *pg_query.Node) (*plan.LogicalOperator, *scope, error) {
	switch table := node.GetNode().(type) {
	case *pg_query.Node_RangeVar:
		names, types, err := b.schema.Schema(table.RangeVar.Relname)
		if err != nil {
			return nil, nil, err
		}
		alias := table.RangeVar.Relname
		if table.RangeVar.GetAlias().GetAliasname() != "" {
			alias = table.RangeVar.GetAlias().GetAliasname()
		}
		sc := &scope{}
		sc.add(&binding{alias: alias, names: names, types: types})
		return plan.Scan(table.RangeVar.Relname, names, types), sc, nil
	case *pg_query.Node_RangeSubselect:
		sub := table.RangeSubselect.GetSubquery().GetSelectStmt()
		if sub == nil {
			return nil, nil, errors.New("usp subquery")
		}
		root, err := (&binder{schema: b.schema}).bindSelect(sub)
		if err != nil {
			return nil, nil, err
		}
		alias := table.RangeSubselect.GetAlias().GetAliasname()
		if alias == "" {
			return nil, nil, errors.New("subquery in from must have an alias")
		}
		sc := &scope{}
		sc.add(&binding{alias: alias, names: root.OutputNames(), types: root.OutputTypes()})
		return root, sc, nil
	case *pg_query.Node_JoinExpr:
		return b.bindJoin(table.JoinExpr)
	default:
		return nil, nil, errors.Newf("usp table reference %T", table)
	}
}

func (b *binder) bindJoin(join *pg_query.JoinExpr) (*plan.LogicalOperator, *scope, error) {
	if join.IsNatural || len(join.UsingClause) != 0 {
		return nil, nil, errors.New("usp natural join or join using")
	}
	var typ plan.LOT_JoinType
	switch join.Jointype {
	case pg_query.JoinType_JOIN_INNER:
		typ = plan.LOT_JoinTypeInner
	case pg_query.JoinType_JOIN_LEFT:
		typ = plan.LOT_JoinTypeLeft
	default:
		return nil, nil, errors.Newf("usp join type %s", join.Jointype)
	}
	left, leftScope, err := b.bindTable(join.Larg)
	if err != nil {
		return nil, nil, err
	}
	right, rightScope, err := b.bindTable(join.Rarg)
	if err != nil {
		return nil, nil, err
	}
	sc := &scope{}
	sc.merge(leftScope)
	sc.merge(rightScope)
	if join.Quals == nil {
		return plan.Join(left, right, typ), sc, nil
	}

	saved := b.scope
	b.scope = sc
	cond, err := b.bindExpr(join.Quals)
	b.scope = saved
	if err != nil {
		return nil, nil, err
	}
	on, rest := splitJoinConds(plan.SplitAnd(cond), leftScope.width, rightScope.width)
	root := plan.Join(left, right, typ, on...)
	if len(rest) != 0 {
		if typ != plan.LOT_JoinTypeInner {
			return nil, nil, errors.Newf("usp non equality condition in %s join", typ)
		}
		root = plan.Filter(root, rest...)
	}
	return root, sc, nil
}

// colRange reports the smallest and largest column ordinal e reads.
func colRange(e *plan.Expr) (lo, hi int, has bool) {
	plan.Walk(e, func(e *plan.Expr) {
		if e.Typ != plan.ET_Column {
			return
		}
		if !has || e.ColIdx < lo {
			lo = e.ColIdx
		}
		if !has || e.ColIdx > hi {
			hi = e.ColIdx
		}
		has = true
	})
	return
}

// shift copies e with every column ordinal moved by delta.
func shift(e *plan.Expr, delta int) *plan.Expr {
	ret := clone.Clone(e).(*plan.Expr)
	plan.Walk(ret, func(e *plan.Expr) {
		if e.Typ == plan.ET_Column {
			e.ColIdx += delta
		}
	})
	return ret
}

// splitJoinConds picks the equalities between the left input, columns
// [0, left), and the right input, columns [left, left+right). The right
// operands are rebased onto the right input.
func splitJoinConds(conds []*plan.Expr, left, right int) (on, rest []*plan.Expr) {
	side := func(e *plan.Expr) int {
		lo, hi, has := colRange(e)
		switch {
		case !has:
			return 0
		case hi < left:
			return 1
		case lo >= left && hi < left+right:
			return 2
		default:
			return 0
		}
	}
	for _, cond := range conds {
		if cond.Typ != plan.ET_Func || cond.SubTyp != plan.ET_Equal {
			rest = append(rest, cond)
			continue
		}
		l, r := cond.Children[0], cond.Children[1]
		ls, rs := side(l), side(r)
		if ls == 2 && rs == 1 {
			l, r = r, l
			ls, rs = rs, ls
		}
		if ls != 1 || rs != 2 {
			rest = append(rest, cond)
			continue
		}
		on = append(on, plan.Eq(l, shift(r, -left)))
	}
	return
}

func bindOrder(sortBy []*pg_query.Node, root *plan.LogicalOperator) ([]*plan.Expr, error) {
	names := root.OutputNames()
	types := root.OutputTypes()
	ret := make([]*plan.Expr, 0, len(sortBy))
	for _, node := range sortBy {
		item := node.GetSortBy().GetNode()
		idx := -1
		if pos, ok := intConst(item); ok {
			idx = int(pos) - 1
		} else if fields := item.GetColumnRef().GetFields(); len(fields) != 0 {
			name := fields[len(fields)-1].GetString_().GetSval()
			for i, out := range names {
				if strings.EqualFold(out, name) {
					idx = i
					break
				}
			}
		}
		if idx < 0 || idx >= len(names) {
			return nil, errors.New("order by must name an output column")
		}
		ret = append(ret, plan.Col(idx, types[idx], names[idx]))
	}
	return ret, nil
}

func intConst(node *pg_query.Node) (int64, bool) {
	if v := node.GetAConst().GetIval(); v != nil {
		return int64(v.Ival), true
	}
	return 0, false
}

var aggFuncs = map[string]plan.ET_SubTyp{
	"count": plan.ET_Count,
	"sum":   plan.ET_Sum,
	"avg":   plan.ET_Avg,
	"min":   plan.ET_Min,
	"max":   plan.ET_Max,
}

func funcName(fc *pg_query.FuncCall) string {
	for _, node := range fc.Funcname {
		sval := node.GetString_().GetSval()
		if sval == "pg_catalog" {
			continue
		}
		return strings.ToLower(sval)
	}
	return ""
}

func hasAgg(node *pg_query.Node) bool {
	switch n := node.GetNode().(type) {
	case *pg_query.Node_FuncCall:
		if _, ok := aggFuncs[funcName(n.FuncCall)]; ok {
			return true
		}
		for _, arg := range n.FuncCall.Args {
			if hasAgg(arg) {
				return true
			}
		}
	case *pg_query.Node_AExpr:
		return hasAgg(n.AExpr.Lexpr) || hasAgg(n.AExpr.Rexpr)
	case *pg_query.Node_BoolExpr:
		for _, arg := range n.BoolExpr.Args {
			if hasAgg(arg) {
				return true
			}
		}
	case *pg_query.Node_List:
		for _, item := range n.List.Items {
			if hasAgg(item) {
				return true
			}
		}
	}
	return false
}

// bindGrouped maps an aggregate free expression onto the group column it
// equals.
func (b *binder) bindGrouped(node *pg_query.Node) *plan.Expr {
	if hasAgg(node) {
		return nil
	}
	b.aggregating = false
	e, err := b.bindExpr(node)
	b.aggregating = true
	if err != nil {
		return nil
	}
	for i, g := range b.groupBys {
		if g.String() == e.String() {
			return plan.Col(i, g.DataTyp, g.OutputName())
		}
	}
	if _, _, has := colRange(e); !has {
		return e
	}
	return nil
}

func (b *binder) bindExpr(node *pg_query.Node) (*plan.Expr, error) {
	if b.aggregating {
		if e := b.bindGrouped(node); e != nil {
			return e, nil
		}
	}
	switch n := node.GetNode().(type) {
	case *pg_query.Node_ColumnRef:
		fields := n.ColumnRef.GetFields()
		if fields[len(fields)-1].GetAStar() != nil {
			return nil, errors.New("* is only allowed in the select list")
		}
		table := ""
		if len(fields) == 2 {
			table = fields[0].GetString_().GetSval()
		} else if len(fields) > 2 {
			return nil, errors.Newf("usp column reference %v", n.ColumnRef)
		}
		name := fields[len(fields)-1].GetString_().GetSval()
		if b.aggregating {
			return nil, errors.Newf("column %s must appear in the group by clause or be used in an aggregate function", name)
		}
		return b.scope.column(table, name)
	case *pg_query.Node_AConst:
		return bindConst(n.AConst)
	case *pg_query.Node_AExpr:
		return b.bindAExpr(n.AExpr)
	case *pg_query.Node_BoolExpr:
		return b.bindBoolExpr(n.BoolExpr)
	case *pg_query.Node_FuncCall:
		return b.bindFuncCall(n.FuncCall)
	default:
		return nil, errors.Newf("usp expression %T", n)
	}
}

func bindConst(c *pg_query.A_Const) (*plan.Expr, error) {
	switch {
	case c.Isnull:
		return nil, errors.New("usp null")
	case c.GetIval() != nil:
		return plan.IConst(int64(c.GetIval().Ival)), nil
	case c.GetFval() != nil:
		text := c.GetFval().Fval
		if v, err := strconv.ParseInt(text, 10, 64); err == nil {
			return plan.IConst(v), nil
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "numeric constant %s", text)
		}
		return plan.FConst(v), nil
	case c.GetSval() != nil:
		return plan.SConst(c.GetSval().Sval), nil
	case c.GetBoolval() != nil:
		return plan.BConst(c.GetBoolval().Boolval), nil
	default:
		return nil, errors.Newf("usp constant %v", c)
	}
}

var binaryOps = map[string]plan.ET_SubTyp{
	"+":  plan.ET_Add,
	"-":  plan.ET_Sub,
	"*":  plan.ET_Mul,
	"/":  plan.ET_Div,
	"=":  plan.ET_Equal,
	"<>": plan.ET_NotEqual,
	"!=": plan.ET_NotEqual,
	">":  plan.ET_Greater,
	">=": plan.ET_GreaterEqual,
	"<":  plan.ET_Less,
	"<=": plan.ET_LessEqual,
}

func binary(op plan.ET_SubTyp, l, r *plan.Expr) (*plan.Expr, error) {
	if op.IsArith() {
		if !l.DataTyp.IsNumeric() || !r.DataTyp.IsNumeric() {
			return nil, errors.Newf("operator %s does not apply to %s and %s", op, l.DataTyp, r.DataTyp)
		}
		return plan.Binary(op, l, r), nil
	}
	ok := l.DataTyp.IsNumeric() && r.DataTyp.IsNumeric() ||
		l.DataTyp.Id == common.LTID_VARCHAR && r.DataTyp.Id == common.LTID_VARCHAR
	if !ok {
		return nil, errors.Newf("can not compare %s with %s", l.DataTyp, r.DataTyp)
	}
	return plan.Binary(op, l, r), nil
}

func (b *binder) bindAExpr(expr *pg_query.A_Expr) (*plan.Expr, error) {
	opName := ""
	if len(expr.Name) != 0 {
		opName = expr.Name[0].GetString_().GetSval()
	}
	switch expr.Kind {
	case pg_query.A_Expr_Kind_AEXPR_BETWEEN, pg_query.A_Expr_Kind_AEXPR_NOT_BETWEEN:
		items := expr.Rexpr.GetList().GetItems()
		if len(items) != 2 {
			return nil, errors.New("between needs two bounds")
		}
		val, err := b.bindExpr(expr.Lexpr)
		if err != nil {
			return nil, err
		}
		lo, err := b.bindExpr(items[0])
		if err != nil {
			return nil, err
		}
		hi, err := b.bindExpr(items[1])
		if err != nil {
			return nil, err
		}
		if expr.Kind == pg_query.A_Expr_Kind_AEXPR_BETWEEN {
			ge, err := binary(plan.ET_GreaterEqual, val, lo)
			if err != nil {
				return nil, err
			}
			le, err := binary(plan.ET_LessEqual, val, hi)
			if err != nil {
				return nil, err
			}
			return plan.And(ge, le), nil
		}
		lt, err := binary(plan.ET_Less, val, lo)
		if err != nil {
			return nil, err
		}
		gt, err := binary(plan.ET_Greater, val, hi)
		if err != nil {
			return nil, err
		}
		return plan.Or(lt, gt), nil
	case pg_query.A_Expr_Kind_AEXPR_IN:
		val, err := b.bindExpr(expr.Lexpr)
		if err != nil {
			return nil, err
		}
		op := plan.ET_Equal
		if opName == "<>" {
			op = plan.ET_NotEqual
		}
		items := expr.Rexpr.GetList().GetItems()
		if len(items) == 0 {
			return nil, errors.New("usp in list")
		}
		parts := make([]*plan.Expr, 0, len(items))
		for _, item := range items {
			e, err := b.bindExpr(item)
			if err != nil {
				return nil, err
			}
			part, err := binary(op, val, e)
			if err != nil {
				return nil, err
			}
			parts = append(parts, part)
		}
		if op == plan.ET_NotEqual {
			return plan.And(parts...), nil
		}
		return plan.Or(parts...), nil
	case pg_query.A_Expr_Kind_AEXPR_OP:
	default:
		return nil, errors.Newf("usp expression kind %s", expr.Kind)
	}

	op, ok := binaryOps[opName]
	if !ok {
		return nil, errors.Newf("usp operator %q", opName)
	}
	right, err := b.bindExpr(expr.Rexpr)
	if err != nil {
		return nil, err
	}
	if expr.Lexpr == nil {
		if op != plan.ET_Sub {
			return nil, errors.Newf("usp prefix operator %q", opName)
		}
		switch right.Typ {
		case plan.ET_IConst:
			return plan.IConst(-right.Ivalue), nil
		case plan.ET_FConst:
			return plan.FConst(-right.Fvalue), nil
		default:
			return binary(plan.ET_Sub, plan.IConst(0), right)
		}
	}
	left, err := b.bindExpr(expr.Lexpr)
	if err != nil {
		return nil, err
	}
	return binary(op, left, right)
}

func (b *binder) bindBoolExpr(expr *pg_query.BoolExpr) (*plan.Expr, error) {
	args := make([]*plan.Expr, 0, len(expr.Args))
	for _, arg := range expr.Args {
		e, err := b.bindExpr(arg)
		if err != nil {
			return nil, err
		}
		if e.DataTyp.Id != common.LTID_BOOLEAN {
			return nil, errors.Newf("argument of %s must be boolean, not %s", expr.Boolop, e.DataTyp)
		}
		args = append(args, e)
	}
	switch expr.Boolop {
	case pg_query.BoolExprType_AND_EXPR:
		return plan.And(args...), nil
	case pg_query.BoolExprType_OR_EXPR:
		return plan.Or(args...), nil
	case pg_query.BoolExprType_NOT_EXPR:
		return plan.Not(args[0]), nil
	default:
		return nil, errors.Newf("usp bool expression %s", expr.Boolop)
	}
}

func (b *binder) bindFuncCall(fc *pg_query.FuncCall) (*plan.Expr, error) {
	name := funcName(fc)
	fun, ok := aggFuncs[name]
	if !ok {
		return nil, errors.Newf("usp function %s", name)
	}
	if !b.aggregating {
		return nil, errors.Newf("aggregate function %s is not allowed here", name)
	}
	if fc.AggDistinct || fc.AggFilter != nil || fc.Over != nil {
		return nil, errors.Newf("usp %s with distinct, filter or window", name)
	}
	var agg *plan.Expr
	if fc.AggStar {
		if fun != plan.ET_Count {
			return nil, errors.Newf("%s(*) is not allowed", name)
		}
		agg = plan.CountStar()
	} else {
		if len(fc.Args) != 1 {
			return nil, errors.Newf("%s takes one argument", name)
		}
		if hasAgg(fc.Args[0]) {
			return nil, errors.New("aggregate function calls can not be nested")
		}
		b.aggregating = false
		arg, err := b.bindExpr(fc.Args[0])
		b.aggregating = true
		if err != nil {
			return nil, err
		}
		if fun != plan.ET_Count && !arg.DataTyp.IsNumeric() {
			return nil, errors.Newf("%s over %s", name, arg.DataTyp)
		}
		agg = plan.AggFunc(fun, arg)
	}
	idx := -1
	for i, e := range b.aggs {
		if e.String() == agg.String() {
			idx = i
			break
		}
	}
	if idx < 0 {
		idx = len(b.aggs)
		b.aggs = append(b.aggs, agg)
	}
	return plan.Col(len(b.groupBys)+idx, agg.DataTyp, agg.String()), nil
}
