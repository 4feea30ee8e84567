package oad

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-kit/log/level"
)

// Driver runs a problem: once, or within an optimization loop.
type Driver interface {
	Run(ctx context.Context, p *Problem) error
}

// Problem is the root of a computation graph with its driver.
type Problem struct {
	Model      *Group
	Driver     Driver
	InputFile  string
	OutputFile string
	Recording  RecordConfig

	io      IO
	isSetup bool
	cases   chan Case
}

// NewProblem returns a problem around the model; call Setup before use.
func NewProblem(model *Group) *Problem {
	return &Problem{Model: model}
}

// Setup declares the whole tree and initializes every variable to its default.
func (p *Problem) Setup() error {
	if p.Model == nil {
		return configErr("model", fmt.Errorf("%w: no model", ErrMalformedConfig))
	}
	p.io = IO{}
	if err := p.Model.Setup(&p.io); err != nil {
		return err
	}
	p.isSetup = true
	return nil
}

func (p *Problem) checkSetup() error {
	if !p.isSetup {
		return ErrNotSetup
	}
	return nil
}

// Val returns the value of a variable, in the units it is stored in.
func (p *Problem) Val(name string) ([]float64, error) {
	if err := p.checkSetup(); err != nil {
		return nil, err
	}
	return p.Model.Val(name)
}

// Scalar returns the first item of a variable.
func (p *Problem) Scalar(name string) (float64, error) {
	val, err := p.Val(name)
	if err != nil {
		return 0, err
	}
	if len(val) == 0 {
		return 0, fmt.Errorf("%w: %s is empty", ErrUnknownVariable, name)
	}
	return val[0], nil
}

// Units returns the units a variable is stored in.
func (p *Problem) Units(name string) (string, error) {
	if err := p.checkSetup(); err != nil {
		return "", err
	}
	spec, ok := p.Model.specs[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownVariable, name)
	}
	return spec.Units, nil
}

// SetVal sets a variable in the units it is stored in.
func (p *Problem) SetVal(name string, val ...float64) error {
	if err := p.checkSetup(); err != nil {
		return err
	}
	return p.Model.SetVal(name, val)
}

// SetValWithUnits converts the value to the stored units and sets it.
func (p *Problem) SetValWithUnits(name, units string, val ...float64) error {
	stored, err := p.Units(name)
	if err != nil {
		return err
	}
	conv, err := convertAll(val, units, stored)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return p.Model.SetVal(name, conv)
}

// RunModel converges the model once.
func (p *Problem) RunModel() error {
	if err := p.checkSetup(); err != nil {
		return err
	}
	stop := p.startRecording()
	defer stop()
	return p.runModel()
}

func (p *Problem) runModel() error {
	return p.Model.Solver.Solve(p.Model)
}

// RunDriver runs the driver, or the model only if there is no driver.
func (p *Problem) RunDriver(ctx context.Context) error {
	if err := p.checkSetup(); err != nil {
		return err
	}
	if p.Driver == nil {
		return p.RunModel()
	}
	stop := p.startRecording()
	defer stop()
	return p.Driver.Run(ctx, p)
}

// startRecording starts the case writer if recording is configured, and returns the function
// which stops it and waits for the file to be written.
func (p *Problem) startRecording() func() {
	if p.Recording.IsUseless() {
		return func() {}
	}
	cases := make(chan Case, 1000) // a 1k entry buffer
	p.cases = cases
	p.Model.setRecorder(cases)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		path, err := StreamCases(p.Recording, cases)
		if err != nil {
			level.Error(logger).Log("subsys", "recorder", "err", err)
			return
		}
		level.Info(logger).Log("subsys", "recorder", "file", path)
	}()
	return func() {
		p.Model.setRecorder(nil)
		p.cases = nil
		close(cases)
		wg.Wait() // Don't return until we're done writing the file.
	}
}

// record sends a driver case to the recorder.
func (p *Problem) record(source string, iter int, objective float64) {
	if p.cases == nil {
		return
	}
	p.cases <- Case{Source: source, Iteration: iter, Residual: objective, Values: p.Model.state.clone()}
}

func (g *Group) setRecorder(cases chan<- Case) {
	g.cases = cases
	for _, child := range g.children {
		if sub, ok := child.comp.(*Group); ok {
			sub.setRecorder(cases)
		}
	}
}

func (p *Problem) variables(names []string, isInput bool) VariableList {
	list := make(VariableList, len(names))
	for _, name := range names {
		spec := p.Model.specs[name]
		list.Add(Variable{Name: name, Value: append([]float64(nil), p.Model.state[name]...), Units: spec.Units, Description: spec.Description, IsInput: isInput})
	}
	return list
}

// InputVariables returns the inputs of the problem, i.e. the variables no system computes.
func (p *Problem) InputVariables() VariableList {
	if !p.isSetup {
		return VariableList{}
	}
	return p.variables(p.Model.inputs, true)
}

// OutputVariables returns the variables computed by the problem.
func (p *Problem) OutputVariables() VariableList {
	if !p.isSetup {
		return VariableList{}
	}
	return p.variables(p.Model.outputs, false)
}

// Variables returns all the variables of the problem.
func (p *Problem) Variables() VariableList {
	all := p.InputVariables()
	all.Merge(p.OutputVariables())
	return all
}

// ReadInputs sets the problem variables from the list, converting units. Outputs are used as
// initial guesses; unknown variables are skipped.
func (p *Problem) ReadInputs(vars VariableList) error {
	if err := p.checkSetup(); err != nil {
		return err
	}
	for _, name := range vars.Names() {
		v := vars[name]
		spec, ok := p.Model.specs[name]
		if !ok {
			level.Debug(logger).Log("subsys", "problem", "skipped", name)
			continue
		}
		if len(v.Value) != len(spec.Default) {
			return fmt.Errorf("%s: expected %d values, got %d", name, len(spec.Default), len(v.Value))
		}
		units := v.Units
		if units == "" {
			units = spec.Units
		}
		if err := p.SetValWithUnits(name, units, v.Value...); err != nil {
			return err
		}
	}
	return nil
}

// ReadInputFile reads the input file of the problem.
func (p *Problem) ReadInputFile() error {
	if p.InputFile == "" {
		return nil
	}
	vars, err := ReadVariables(p.InputFile)
	if err != nil {
		return err
	}
	return p.ReadInputs(vars)
}

// WriteNeededInputs writes an input file listing every input of the problem. Values are taken
// from source when available, the current values otherwise.
func (p *Problem) WriteNeededInputs(path string, source VariableList) error {
	if err := p.checkSetup(); err != nil {
		return err
	}
	needed := p.InputVariables()
	for _, name := range needed.Names() {
		src, ok := source[name]
		if !ok {
			continue
		}
		v := needed[name]
		if len(src.Value) != len(v.Value) {
			return fmt.Errorf("%s: expected %d values, got %d", name, len(v.Value), len(src.Value))
		}
		units := src.Units
		if units == "" {
			units = v.Units
		}
		conv, err := convertAll(src.Value, units, v.Units)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		v.Value = conv
		if src.Description != "" {
			v.Description = src.Description
		}
		needed[name] = v
	}
	return WriteVariables(path, needed)
}

// WriteOutputFile writes all the variables to the output file of the problem.
func (p *Problem) WriteOutputFile() error {
	if p.OutputFile == "" {
		return nil
	}
	if err := p.checkSetup(); err != nil {
		return err
	}
	return WriteVariables(p.OutputFile, p.Variables())
}
