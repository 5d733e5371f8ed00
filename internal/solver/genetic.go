package solver

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/noah-isme/timetable-engine/internal/models"
)

// Genetic evolves whole-schedule chromosomes: one gene per session, each gene
// a (slot, teacher, classroom) triple drawn from the session's precomputed
// domain. Elitism keeps the best individuals unchanged, which makes the best
// fitness non-decreasing across generations.
type Genetic struct{}

// NewGenetic returns the genetic algorithm strategy.
func NewGenetic() *Genetic {
	return &Genetic{}
}

// Name implements Solver.
func (g *Genetic) Name() string { return "genetic" }

const (
	fitnessWeightHard = 0.6
	fitnessWeightSoft = 0.2
	fitnessWeightOpt  = 0.2
	earlyExitFitness  = 0.95
)

type gene struct {
	value Assignment
	// flagged marks a random fallback gene drawn outside the session's
	// valid-assignment list.
	flagged bool
}

type individual struct {
	genes   []gene
	fitness float64
}

func (ind *individual) clone() *individual {
	out := &individual{genes: make([]gene, len(ind.genes)), fitness: ind.fitness}
	copy(out.genes, ind.genes)
	return out
}

// Solve implements Solver.
func (g *Genetic) Solve(ctx context.Context, p *Problem) (*Result, error) {
	started := time.Now()

	if len(p.Sessions) == 0 {
		return &Result{Success: true, Metrics: baseMetrics(g.Name(), p, started, 0)}, nil
	}

	run := &geneticRun{p: p, domains: BuildDomains(p)}
	run.initPopulation()

	best := run.population[0].clone()
	stale := 0
	generation := 0
	var fitnessTrace []float64

	for generation = 1; generation <= p.Settings.MaxGenerations; generation++ {
		run.evolve()

		champion := run.population[0]
		if champion.fitness > best.fitness {
			best = champion.clone()
			stale = 0
		} else {
			stale++
		}
		fitnessTrace = append(fitnessTrace, best.fitness)

		if generation%progressEvery(p) == 0 {
			percent := float64(generation) / float64(p.Settings.MaxGenerations) * 100
			if err := p.checkpoint(ctx, percent, fmt.Sprintf("generation %d, best fitness %.3f", generation, best.fitness)); err != nil {
				return nil, err
			}
		}
		if best.fitness >= earlyExitFitness {
			break
		}
		if stale >= p.Settings.ConvergenceWindow {
			break
		}
	}

	schedule := run.schedule(best)
	violations := run.hardViolationCount(schedule)

	metrics := baseMetrics(g.Name(), p, started, len(schedule))
	metrics.Generations = generation
	metrics.BestFitness = best.fitness
	metrics.FitnessTrace = fitnessTrace

	result := &Result{
		Success:  true,
		Schedule: schedule,
		Metrics:  metrics,
	}
	if violations > 0 {
		result.Reason = fmt.Sprintf("best individual retains %d hard violations", violations)
	}
	p.report(100, "genetic search complete")
	return result, nil
}

func progressEvery(p *Problem) int {
	if p.Settings.ProgressInterval > 0 && p.Settings.ProgressInterval < p.Settings.MaxGenerations {
		return p.Settings.ProgressInterval
	}
	return 10
}

type geneticRun struct {
	p          *Problem
	domains    map[string][]Assignment
	population []*individual
}

func (r *geneticRun) initPopulation() {
	size := r.p.Settings.PopulationSize
	if size < 2 {
		size = 2
	}
	r.population = make([]*individual, 0, size)

	if len(r.p.SeedSchedule) > 0 {
		r.population = append(r.population, r.fromSeed(r.p.SeedSchedule))
	}
	for len(r.population) < size {
		r.population = append(r.population, r.randomIndividual())
	}
	for _, ind := range r.population {
		ind.fitness = r.evaluate(ind)
	}
	r.sortPopulation()
}

// fromSeed primes a chromosome with a prior (possibly partial) schedule.
func (r *geneticRun) fromSeed(seed models.Schedule) *individual {
	bySession := make(map[string]Assignment, len(seed))
	for _, entry := range seed {
		bySession[entry.Session.ID] = Assignment{Slot: entry.Slot, TeacherID: entry.TeacherID, ClassroomID: entry.ClassroomID}
	}
	ind := &individual{genes: make([]gene, len(r.p.Sessions))}
	for i, session := range r.p.Sessions {
		if value, ok := bySession[session.ID]; ok {
			ind.genes[i] = gene{value: value}
			continue
		}
		ind.genes[i] = r.randomGene(i)
	}
	return ind
}

func (r *geneticRun) randomIndividual() *individual {
	ind := &individual{genes: make([]gene, len(r.p.Sessions))}
	for i := range r.p.Sessions {
		ind.genes[i] = r.randomGene(i)
	}
	return ind
}

// randomGene draws from the session's valid list, falling back to a flagged
// random triple when the list is empty.
func (r *geneticRun) randomGene(position int) gene {
	session := r.p.Sessions[position]
	domain := r.domains[session.ID]
	if len(domain) > 0 {
		return gene{value: domain[r.p.Rand.Intn(len(domain))]}
	}
	return gene{value: r.arbitraryAssignment(session), flagged: true}
}

func (r *geneticRun) arbitraryAssignment(session *models.Session) Assignment {
	slot := r.p.Slots[r.p.Rand.Intn(len(r.p.Slots))]
	teacherID := session.TeacherIDs[r.p.Rand.Intn(len(session.TeacherIDs))]
	roomIDs := make([]string, 0, len(r.p.Classrooms))
	for id := range r.p.Classrooms {
		roomIDs = append(roomIDs, id)
	}
	// Sorted so the seeded source keeps runs repeatable.
	sort.Strings(roomIDs)
	roomID := roomIDs[r.p.Rand.Intn(len(roomIDs))]
	return Assignment{Slot: slot, TeacherID: teacherID, ClassroomID: roomID}
}

func (r *geneticRun) schedule(ind *individual) models.Schedule {
	out := make(models.Schedule, len(ind.genes))
	for i, gn := range ind.genes {
		out[i] = gn.value.Entry(r.p.Sessions[i])
	}
	out.Sort()
	return out
}

func (r *geneticRun) hardViolationCount(schedule models.Schedule) int {
	count := 0
	for i, entry := range schedule {
		count += len(r.p.Checker.UnaryViolations(entry))
		for j := i + 1; j < len(schedule); j++ {
			count += len(r.p.Checker.PairViolations(entry, schedule[j]))
		}
	}
	return count
}

// evaluate scores an individual as a weighted sum of hard-constraint
// cleanliness, soft-constraint quality and optimisation balance.
func (r *geneticRun) evaluate(ind *individual) float64 {
	schedule := r.schedule(ind)

	violations := r.hardViolationCount(schedule)
	violationRate := math.Min(1, float64(violations)/float64(len(schedule)))

	soft := 0.0
	for _, entry := range schedule {
		soft += r.p.Checker.SoftScore(entry, schedule)
	}
	soft /= float64(len(schedule))

	opt := r.optimizationScore(schedule)

	return (1-violationRate)*fitnessWeightHard + soft*fitnessWeightSoft + opt*fitnessWeightOpt
}

// optimizationScore rewards balanced daily load, small cohort gaps and
// efficient room occupancy.
func (r *geneticRun) optimizationScore(schedule models.Schedule) float64 {
	perDay := map[models.Weekday]int{}
	for _, entry := range schedule {
		perDay[entry.Slot.Day]++
	}
	mean := float64(len(schedule)) / math.Max(1, float64(len(perDay)))
	variance := 0.0
	for _, n := range perDay {
		variance += math.Pow(float64(n)-mean, 2)
	}
	variance /= math.Max(1, float64(len(perDay)))
	balance := 1 / (1 + math.Sqrt(variance))

	gaps := 0
	byCohortDay := map[string][]models.TimeRange{}
	for _, entry := range schedule {
		key := entry.Session.CohortKey() + "|" + string(entry.Slot.Day)
		byCohortDay[key] = append(byCohortDay[key], entry.Window())
	}
	for _, windows := range byCohortDay {
		gaps += aggregateSortedGaps(windows)
	}
	gapScore := 1 / (1 + float64(gaps)/60)

	utilization := 0.0
	counted := 0
	for _, entry := range schedule {
		room := r.p.Classrooms[entry.ClassroomID]
		if room == nil || room.Capacity == 0 || entry.Session.MinCapacity == 0 {
			continue
		}
		ratio := float64(entry.Session.MinCapacity) / float64(room.Capacity)
		utilization += math.Min(1, ratio)
		counted++
	}
	if counted > 0 {
		utilization /= float64(counted)
	} else {
		utilization = 1
	}

	return (balance + gapScore + utilization) / 3
}

func aggregateSortedGaps(windows []models.TimeRange) int {
	if len(windows) < 2 {
		return 0
	}
	sortTimeRanges(windows)
	total := 0
	for i := 1; i < len(windows); i++ {
		if gap := windows[i].Start - windows[i-1].End; gap > 0 {
			total += gap
		}
	}
	return total
}

func sortTimeRanges(windows []models.TimeRange) {
	sort.Slice(windows, func(i, j int) bool { return windows[i].Start < windows[j].Start })
}

func (r *geneticRun) sortPopulation() {
	sort.SliceStable(r.population, func(i, j int) bool {
		return r.population[i].fitness > r.population[j].fitness
	})
}

// evolve produces the next generation: elites carried unchanged, the rest
// bred by tournament selection, crossover and mutation.
func (r *geneticRun) evolve() {
	elite := r.p.Settings.EliteCount
	if elite >= len(r.population) {
		elite = len(r.population) - 1
	}
	next := make([]*individual, 0, len(r.population))
	for i := 0; i < elite; i++ {
		next = append(next, r.population[i].clone())
	}

	for len(next) < len(r.population) {
		parentA := r.tournament()
		parentB := r.tournament()
		child := parentA.clone()
		if r.p.Rand.Float64() < r.p.Settings.CrossoverRate {
			child = r.crossover(parentA, parentB)
		}
		if r.p.Rand.Float64() < r.p.Settings.MutationRate {
			r.mutate(child)
		}
		child.fitness = r.evaluate(child)
		next = append(next, child)
	}
	r.population = next
	r.sortPopulation()
}

func (r *geneticRun) tournament() *individual {
	size := r.p.Settings.TournamentSize
	if size < 2 {
		size = 2
	}
	best := r.population[r.p.Rand.Intn(len(r.population))]
	for i := 1; i < size; i++ {
		contender := r.population[r.p.Rand.Intn(len(r.population))]
		if contender.fitness > best.fitness {
			best = contender
		}
	}
	return best
}

// crossover copies a two-point segment from parentA and refills the outside
// positions from parentB's genes when they are valid for that position,
// falling back to a fresh random valid gene.
func (r *geneticRun) crossover(parentA, parentB *individual) *individual {
	n := len(parentA.genes)
	child := &individual{genes: make([]gene, n)}
	lo := r.p.Rand.Intn(n)
	hi := r.p.Rand.Intn(n)
	if lo > hi {
		lo, hi = hi, lo
	}
	for i := 0; i < n; i++ {
		if i >= lo && i <= hi {
			child.genes[i] = parentA.genes[i]
			continue
		}
		if r.validForPosition(parentB.genes[i], i) {
			child.genes[i] = parentB.genes[i]
		} else {
			child.genes[i] = r.randomGene(i)
		}
	}
	return child
}

func (r *geneticRun) validForPosition(gn gene, position int) bool {
	if gn.flagged {
		return false
	}
	session := r.p.Sessions[position]
	for _, value := range r.domains[session.ID] {
		if value.Slot.ID == gn.value.Slot.ID && value.TeacherID == gn.value.TeacherID && value.ClassroomID == gn.value.ClassroomID {
			return true
		}
	}
	return false
}

// mutate applies one of swap, insertion or inversion, then repairs any gene
// displaced onto a position it is not valid for.
func (r *geneticRun) mutate(ind *individual) {
	n := len(ind.genes)
	if n < 2 {
		ind.genes[0] = r.randomGene(0)
		return
	}
	i := r.p.Rand.Intn(n)
	j := r.p.Rand.Intn(n)
	if i > j {
		i, j = j, i
	}
	switch r.p.Rand.Intn(3) {
	case 0: // swap
		ind.genes[i], ind.genes[j] = ind.genes[j], ind.genes[i]
	case 1: // insertion
		moved := ind.genes[i]
		copy(ind.genes[i:], ind.genes[i+1:j+1])
		ind.genes[j] = moved
	default: // inversion
		for l, rr := i, j; l < rr; l, rr = l+1, rr-1 {
			ind.genes[l], ind.genes[rr] = ind.genes[rr], ind.genes[l]
		}
	}
	for pos := i; pos <= j; pos++ {
		if !r.validForPosition(ind.genes[pos], pos) {
			ind.genes[pos] = r.randomGene(pos)
		}
	}
}
