// Command tandem runs a two-agent collaboration from the terminal: a
// researcher with web tools and a chart generator with a Python sandbox
// take turns on the user's question until one of them delivers a final
// answer.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/tandemkit/tandem/collab"
	"github.com/tandemkit/tandem/config"
	"github.com/tandemkit/tandem/graph"
	"github.com/tandemkit/tandem/llm"
	"github.com/tandemkit/tandem/memory"
	"github.com/tandemkit/tandem/observer"
	"github.com/tandemkit/tandem/runner"
	"github.com/tandemkit/tandem/tools"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config (optional)")
		question   = flag.String("q", "", "question for the agents")
		verbose    = flag.Bool("v", false, "log every node, route, and tool call")
	)
	flag.Parse()

	if *question == "" && flag.NArg() > 0 {
		*question = strings.Join(flag.Args(), " ")
	}
	if *question == "" {
		fmt.Fprintln(os.Stderr, "usage: tandem [-config file.yaml] [-v] -q \"question\"")
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *verbose {
		cfg.Verbose = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *question); err != nil {
		log.Fatalf("run: %v", err)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func run(ctx context.Context, cfg *config.Config, question string) error {
	model, err := llm.NewLiteLLMModel(llm.ProviderConfig{
		Provider:    cfg.Model.Provider,
		APIKey:      cfg.Model.APIKey,
		BaseURL:     cfg.Model.BaseURL,
		Model:       cfg.Model.Model,
		Temperature: cfg.Model.Temperature,
		MaxTokens:   cfg.Model.MaxTokens,
	})
	if err != nil {
		return err
	}

	metrics := observer.NewMetrics()
	obs := observer.Multi{metrics}
	if cfg.Verbose {
		obs = append(obs, observer.NewLogging(log.New(os.Stderr, "", log.Ltime)))
	}

	window := memory.DefaultWindow()
	if cfg.Window.MaxMessages > 0 {
		window.MaxMessages = cfg.Window.MaxMessages
	}
	if cfg.Window.MaxTokens > 0 {
		window.MaxTokens = cfg.Window.MaxTokens
	}
	if counter, err := memory.NewTiktokenCounter(cfg.Model.Model); err == nil {
		window.Counter = counter
	}

	toolbox := buildToolbox(cfg)
	first, err := participant(cfg.Agents[0], toolbox)
	if err != nil {
		return err
	}
	second, err := participant(cfg.Agents[1], toolbox)
	if err != nil {
		return err
	}

	duoCfg := collab.Config{
		First:    first,
		Second:   second,
		Runner:   runner.New(runner.Config{Model: model, Window: window, Observer: obs, MaxRetries: 2}),
		Invoker:  tools.NewSerialInvoker(),
		Observer: obs,
		MaxSteps: cfg.Run.MaxSteps,
	}
	if cfg.Run.CheckpointPath != "" {
		cp, err := graph.NewSQLiteCheckpointer(cfg.Run.CheckpointPath)
		if err != nil {
			return err
		}
		defer cp.Close()
		duoCfg.Checkpointer = cp
	}

	duo, err := collab.NewDuo(duoCfg)
	if err != nil {
		return err
	}

	result, err := duo.Run(ctx, question)
	if err != nil {
		return err
	}

	if result.Answered {
		fmt.Println(result.Answer)
	} else {
		fmt.Println("The agents stopped without a final answer.")
	}

	snap := metrics.Snapshot()
	fmt.Fprintf(os.Stderr, "\n%d model calls, %d tool calls, %d tokens\n",
		snap.ModelCalls, snap.ToolCalls, snap.PromptTokens+snap.CompletionTokens)
	return nil
}

// buildToolbox constructs every built-in tool once; agents pick from it
// by name.
func buildToolbox(cfg *config.Config) map[string]tools.Tool {
	var searchOpts []tools.SearchOption
	var pythonOpts []tools.PythonOption
	if cfg.Tools.SearchMaxResults > 0 {
		searchOpts = append(searchOpts, tools.WithSearchLimit(cfg.Tools.SearchMaxResults))
	}
	if cfg.Tools.PythonWorkDir != "" {
		pythonOpts = append(pythonOpts, tools.WithWorkDir(cfg.Tools.PythonWorkDir))
	}

	toolbox := make(map[string]tools.Tool)
	for _, t := range []tools.Tool{
		tools.NewSearchTool(searchOpts...),
		tools.NewFetchTool(),
		tools.NewPythonTool(pythonOpts...),
	} {
		toolbox[t.Name()] = t
	}
	return toolbox
}

func participant(ac config.AgentConfig, toolbox map[string]tools.Tool) (collab.Participant, error) {
	p := collab.Participant{Name: ac.Name, Instructions: ac.Instructions}
	for _, name := range ac.Tools {
		t, ok := toolbox[name]
		if !ok {
			return p, fmt.Errorf("agent %q references unknown tool %q", ac.Name, name)
		}
		p.Tools = append(p.Tools, t)
	}
	return p, nil
}
