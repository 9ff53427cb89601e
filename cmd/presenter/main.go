// Command presenter drives an interview session from the terminal: it keeps
// the screen sampler running in the background while the presenter records
// or types answers to the interviewer's questions.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/viva-ai/viva/internal/client"
	"github.com/viva-ai/viva/internal/config"
	"github.com/viva-ai/viva/internal/media"
	"github.com/viva-ai/viva/internal/service/recording"
	"github.com/viva-ai/viva/internal/service/sampler"
	"github.com/viva-ai/viva/internal/service/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("presenter error: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	gateway, err := media.NewFFmpegGateway(cfg.Capture.Display, cfg.Capture.AudioInput)
	if err != nil {
		return err
	}

	dialogue := client.NewDialogueClient(cfg.Dialogue.BaseURL)
	recorder := recording.NewPipeline(gateway)
	screens := sampler.New(gateway, dialogue, cfg.Capture.SampleInterval)
	controller := session.NewController(dialogue, recorder, screens)
	defer controller.Teardown()

	in := bufio.NewScanner(os.Stdin)

	fmt.Print("Presenter name: ")
	presenterName := readLine(in)
	fmt.Print("Project name: ")
	subject := readLine(in)

	question, err := controller.Start(ctx, presenterName, subject)
	if err != nil {
		return err
	}
	fmt.Printf("\n[interviewer] Q%d: %s\n", question.Index, question.Text)
	printHelp()

	for {
		fmt.Print("> ")
		if !in.Scan() {
			return in.Err()
		}
		line := strings.TrimSpace(in.Text())
		cmd, rest, _ := strings.Cut(line, " ")

		switch cmd {
		case "":
			continue
		case "help":
			printHelp()
		case "record":
			if err := controller.BeginRecording(ctx); err != nil {
				printErr(err)
				continue
			}
			fmt.Println("recording... type 'stop' to finish")
		case "stop":
			text, err := controller.EndRecording(ctx)
			if err != nil {
				if errors.Is(err, session.ErrTranscription) {
					fmt.Println("transcription failed; type your answer with 'submit <text>'")
				} else {
					printErr(err)
				}
				continue
			}
			fmt.Printf("transcript: %s\n", text)
			fmt.Println("use 'send' to submit it, or 'submit <text>' to correct it")
		case "send":
			if err := submit(ctx, controller, controller.PendingResponse()); err != nil {
				printErr(err)
			}
		case "submit":
			if err := submit(ctx, controller, rest); err != nil {
				printErr(err)
			}
		case "status":
			snap := screens.Snapshot()
			fmt.Printf("state=%s turns=%d screen_text=%d chars\n",
				controller.State(), len(controller.Conversation()), len(snap.Text))
		case "quit", "exit":
			return nil
		default:
			fmt.Printf("unknown command %q\n", cmd)
		}

		if controller.State().Terminal() {
			return nil
		}
	}
}

// submit pushes the answer and prints either the next question or, on the
// final answer, the evaluation.
func submit(ctx context.Context, controller *session.Controller, text string) error {
	done, err := controller.SubmitResponse(ctx, text)
	if err != nil {
		if errors.Is(err, session.ErrEmptyResponse) {
			fmt.Println("nothing to submit yet")
			return nil
		}
		return err
	}

	if !done {
		turns := controller.Conversation()
		last := turns[len(turns)-1]
		fmt.Printf("\n[interviewer] Q%d: %s\n", last.Index, last.Text)
		return nil
	}

	fmt.Println("interview complete, requesting evaluation...")
	eval, err := controller.Finish(ctx)
	if err != nil {
		return err
	}

	var pretty map[string]any
	if err := json.Unmarshal(eval.Result, &pretty); err == nil {
		formatted, _ := json.MarshalIndent(pretty, "", "  ")
		fmt.Printf("\n=== Evaluation ===\n%s\n", formatted)
	} else {
		fmt.Printf("\n=== Evaluation ===\n%s\n", eval.Result)
	}
	return nil
}

func readLine(in *bufio.Scanner) string {
	if !in.Scan() {
		return ""
	}
	return strings.TrimSpace(in.Text())
}

func printHelp() {
	fmt.Println(`commands:
  record         start recording your answer
  stop           stop recording and transcribe it
  send           submit the last transcript
  submit <text>  submit a typed answer
  status         show session state
  quit           leave the session`)
}

func printErr(err error) {
	fmt.Printf("error: %v\n", err)
}
