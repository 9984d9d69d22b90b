// Package balance solves the SALBP-2 line-balancing problem: for a fixed
// number of workstations, assign every task to exactly one station so that
// precedence is respected and the cycle time (the busiest station's work
// content) is minimal.
//
// The program is expressed through a typed constraint builder (Problem, Var,
// Expr) and solved by branch-and-bound over LP relaxations computed with
// gonum's simplex method. Solver runs the per-station-count solves
// concurrently and merges the feasible configurations into a map keyed by
// station count; infeasible counts are simply absent.
package balance
