package balance

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// ErrInfeasible indicates the program has no feasible solution.
var ErrInfeasible = errors.New("milp infeasible")

// ErrUnbounded indicates the relaxation is unbounded below.
var ErrUnbounded = errors.New("milp unbounded")

// Var is a handle to a decision variable of a Problem.
type Var int

// Sense is the relation of a linear constraint to its right-hand side.
type Sense int

const (
	LessEq Sense = iota
	GreaterEq
	Equal
)

// Expr is a linear expression over problem variables. Coefficients for the
// same variable accumulate.
type Expr struct {
	coeffs map[Var]float64
}

// NewExpr returns an empty linear expression.
func NewExpr() *Expr { return &Expr{coeffs: make(map[Var]float64)} }

// Add accumulates c onto the coefficient of v and returns the expression for
// chaining.
func (e *Expr) Add(v Var, c float64) *Expr {
	e.coeffs[v] += c
	return e
}

type constraint struct {
	expr  *Expr
	sense Sense
	rhs   float64
}

// Problem is a typed mixed-integer linear program under construction:
// variables, linear expressions and constraints are first-class values, and
// the program is lowered to matrix form only at solve time.
type Problem struct {
	lower   []float64
	upper   []float64
	integer []bool
	obj     *Expr
	cons    []constraint
}

// NewProblem returns an empty minimization problem.
func NewProblem() *Problem { return &Problem{obj: NewExpr()} }

// Binary adds a 0/1 integer variable.
func (p *Problem) Binary() Var {
	return p.addVar(0, 1, true)
}

// Continuous adds a bounded continuous variable.
func (p *Problem) Continuous(lb, ub float64) Var {
	return p.addVar(lb, ub, false)
}

func (p *Problem) addVar(lb, ub float64, integer bool) Var {
	p.lower = append(p.lower, lb)
	p.upper = append(p.upper, ub)
	p.integer = append(p.integer, integer)
	return Var(len(p.lower) - 1)
}

// AddConstraint appends the constraint expr <sense> rhs.
func (p *Problem) AddConstraint(expr *Expr, sense Sense, rhs float64) {
	p.cons = append(p.cons, constraint{expr: expr, sense: sense, rhs: rhs})
}

// Minimize sets the objective to be minimized.
func (p *Problem) Minimize(expr *Expr) { p.obj = expr }

const (
	intTol     = 1e-6
	simplexTol = 1e-8
)

// relaxSolve points to the function solving LP relaxations. Tests override it
// to simulate solver failures.
var relaxSolve = solveRelaxation

// solveRelaxation lowers the general-form LP (G x <= h, A x = b) to standard
// form and runs the simplex method, mapping the split-variable solution back
// to the original variable space.
func solveRelaxation(c []float64, g *mat.Dense, h []float64, a *mat.Dense, b []float64) (float64, []float64, error) {
	var gm, am mat.Matrix
	if g != nil {
		gm = g
	}
	if a != nil {
		am = a
	}
	cStd, aStd, bStd := lp.Convert(c, gm, h, am, b)
	f, sol, err := lp.Simplex(cStd, aStd, bStd, simplexTol, nil)
	if err != nil {
		return 0, nil, err
	}
	n := len(c)
	x := make([]float64, n)
	for i := range x {
		x[i] = sol[i] - sol[n+i]
	}
	return f, x, nil
}

// matrices builds the general-form matrices for the current constraint set with
// the node's variable bounds folded in as inequality rows.
func (p *Problem) matrices(lowerB, upperB []float64) (c []float64, g *mat.Dense, h []float64, a *mat.Dense, b []float64) {
	n := len(p.lower)
	c = make([]float64, n)
	for v, coef := range p.obj.coeffs {
		c[v] = coef
	}

	var ineq [][]float64
	var ineqRHS []float64
	var eq [][]float64
	var eqRHS []float64

	row := func(e *Expr, scale float64) []float64 {
		r := make([]float64, n)
		for v, coef := range e.coeffs {
			r[v] = coef * scale
		}
		return r
	}
	for _, con := range p.cons {
		switch con.sense {
		case LessEq:
			ineq = append(ineq, row(con.expr, 1))
			ineqRHS = append(ineqRHS, con.rhs)
		case GreaterEq:
			ineq = append(ineq, row(con.expr, -1))
			ineqRHS = append(ineqRHS, -con.rhs)
		case Equal:
			eq = append(eq, row(con.expr, 1))
			eqRHS = append(eqRHS, con.rhs)
		}
	}
	for i := 0; i < n; i++ {
		if !math.IsInf(upperB[i], 1) {
			r := make([]float64, n)
			r[i] = 1
			ineq = append(ineq, r)
			ineqRHS = append(ineqRHS, upperB[i])
		}
		if !math.IsInf(lowerB[i], -1) {
			r := make([]float64, n)
			r[i] = -1
			ineq = append(ineq, r)
			ineqRHS = append(ineqRHS, -lowerB[i])
		}
	}

	if len(ineq) > 0 {
		g = mat.NewDense(len(ineq), n, nil)
		for i, r := range ineq {
			g.SetRow(i, r)
		}
		h = ineqRHS
	}
	if len(eq) > 0 {
		a = mat.NewDense(len(eq), n, nil)
		for i, r := range eq {
			a.SetRow(i, r)
		}
		b = eqRHS
	}
	return c, g, h, a, b
}

type bbNode struct {
	lower []float64
	upper []float64
}

// Solve runs branch-and-bound over the LP relaxation and returns the optimal
// variable values and objective. Integrality is enforced by branching on the
// most fractional integer variable; nodes whose relaxation cannot beat the
// incumbent are pruned. The context is checked at every node, so a cancelled
// solve returns promptly with ctx.Err().
func (p *Problem) Solve(ctx context.Context) ([]float64, float64, error) {
	root := bbNode{
		lower: append([]float64(nil), p.lower...),
		upper: append([]float64(nil), p.upper...),
	}
	stack := []bbNode{root}

	var bestX []float64
	bestF := math.Inf(1)

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		c, g, h, a, b := p.matrices(node.lower, node.upper)
		f, x, err := relaxSolve(c, g, h, a, b)
		switch {
		case errors.Is(err, lp.ErrInfeasible):
			// Infeasible subproblem, prune.
			continue
		case errors.Is(err, lp.ErrUnbounded):
			return nil, 0, ErrUnbounded
		case err != nil:
			return nil, 0, fmt.Errorf("lp relaxation: %w", err)
		}
		if f >= bestF-intTol {
			continue
		}

		branch := -1
		frac := intTol
		for i, isInt := range p.integer {
			if !isInt {
				continue
			}
			d := math.Abs(x[i] - math.Round(x[i]))
			if d > frac {
				frac = d
				branch = i
			}
		}
		if branch < 0 {
			bestF = f
			bestX = append([]float64(nil), x...)
			continue
		}

		down := bbNode{
			lower: append([]float64(nil), node.lower...),
			upper: append([]float64(nil), node.upper...),
		}
		down.upper[branch] = math.Floor(x[branch])
		up := bbNode{
			lower: append([]float64(nil), node.lower...),
			upper: append([]float64(nil), node.upper...),
		}
		up.lower[branch] = math.Ceil(x[branch])
		stack = append(stack, down, up)
	}

	if bestX == nil {
		return nil, 0, ErrInfeasible
	}
	return bestX, bestF, nil
}
