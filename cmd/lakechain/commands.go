// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"io"

	"github.com/poiesic/lakechain/ai"
	"github.com/poiesic/lakechain/middleware"
	"github.com/poiesic/lakechain/processors"
	"github.com/poiesic/lakechain/processors/article"
	"github.com/poiesic/lakechain/processors/embedding"
	"github.com/poiesic/lakechain/processors/feed"
	"github.com/poiesic/lakechain/processors/imagehash"
	"github.com/poiesic/lakechain/processors/keywords"
	"github.com/poiesic/lakechain/processors/laplacian"
	"github.com/poiesic/lakechain/processors/layers"
	"github.com/poiesic/lakechain/processors/markdown"
	"github.com/poiesic/lakechain/processors/mediainfo"
	"github.com/poiesic/lakechain/processors/pdftext"
	"github.com/poiesic/lakechain/processors/summarize"
	"github.com/poiesic/lakechain/processors/synthesize"
	"github.com/poiesic/lakechain/processors/textgen"
	"github.com/poiesic/lakechain/processors/textsplit"
	"github.com/poiesic/lakechain/processors/transcribe"
	"github.com/urfave/cli/v2"
)

// processorCommand builds a command that serves one processor.
func processorCommand(name, usage string, flags []cli.Flag, build buildFunc) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Flags: withFlags(runtimeFlags(), flags),
		Action: func(c *cli.Context) error {
			return serve(c, build)
		},
	}
}

// plain adapts a constructor that needs nothing beyond the environment.
func plain(build func(c *cli.Context, env *processors.Env) (middleware.Processor, error)) buildFunc {
	return func(_ context.Context, c *cli.Context, env *processors.Env) (middleware.Processor, []io.Closer, error) {
		p, err := build(c, env)
		return p, nil, err
	}
}

// withProvider creates the model provider before the processor and closes
// it once the runtime stops.
func withProvider(build func(c *cli.Context, env *processors.Env, provider ai.Provider) (middleware.Processor, error)) buildFunc {
	return func(ctx context.Context, c *cli.Context, env *processors.Env) (middleware.Processor, []io.Closer, error) {
		provider, err := newProvider(ctx, c, env)
		if err != nil {
			return nil, nil, err
		}
		p, err := build(c, env, provider)
		if err != nil {
			provider.Close()
			return nil, nil, err
		}
		return p, []io.Closer{provider}, nil
	}
}

func processorCommands() []*cli.Command {
	return []*cli.Command{
		embeddingCommand(),
		textgenCommand(),
		summarizeCommand(),
		keywordsCommand(),
		textsplitCommand(),
		pdftextCommand(),
		markdownCommand(),
		feedCommand(),
		articleCommand(),
		imagehashCommand(),
		laplacianCommand(),
		layersCommand(),
		mediainfoCommand(),
		transcribeCommand(),
		synthesizeCommand(),
	}
}

func embeddingCommand() *cli.Command {
	return processorCommand("embedding", "Store embedding vectors of text documents",
		modelFlags(),
		withProvider(func(c *cli.Context, env *processors.Env, provider ai.Provider) (middleware.Processor, error) {
			return embedding.New(env, provider.Embedder(), c.String("embedding-model"))
		}))
}

func textgenCommand() *cli.Command {
	return processorCommand("textgen", "Generate text from documents with a prompt",
		withFlags(modelFlags(), []cli.Flag{
			&cli.StringFlag{Name: "prompt", Usage: "Instruction sent to the model", EnvVars: []string{"PROMPT"}, Required: true},
			&cli.BoolFlag{Name: "caption", Usage: "Store the answer as the image description", EnvVars: []string{"CAPTION"}},
			&cli.Float64Flag{Name: "temperature", Usage: "Sampling temperature", EnvVars: []string{"TEMPERATURE"}, Value: 1},
			&cli.IntFlag{Name: "max-tokens", Usage: "Maximum generated tokens (0 for the model default)", EnvVars: []string{"MAX_TOKENS"}},
		}),
		withProvider(func(c *cli.Context, env *processors.Env, provider ai.Provider) (middleware.Processor, error) {
			return textgen.New(env, provider.Generator(), textgen.Config{
				Prompt:      c.String("prompt"),
				Caption:     c.Bool("caption"),
				Temperature: c.Float64("temperature"),
				MaxTokens:   c.Int("max-tokens"),
			})
		}))
}

func summarizeCommand() *cli.Command {
	defaults := summarize.DefaultConfig()
	return processorCommand("summarize", "Summarize text documents",
		withFlags(modelFlags(), []cli.Flag{
			&cli.IntFlag{Name: "chunk-size", Usage: "Runes sent to the model at once", EnvVars: []string{"CHUNK_SIZE"}, Value: defaults.ChunkSize},
			&cli.IntFlag{Name: "summary-size", Usage: "Tokens generated per chunk", EnvVars: []string{"SUMMARY_SIZE"}, Value: defaults.SummarySize},
			&cli.StringFlag{Name: "prompt", Usage: "System prompt", EnvVars: []string{"PROMPT"}, Value: defaults.Prompt},
		}),
		withProvider(func(c *cli.Context, env *processors.Env, provider ai.Provider) (middleware.Processor, error) {
			return summarize.New(env, provider.Generator(), summarize.Config{
				ChunkSize:   c.Int("chunk-size"),
				SummarySize: c.Int("summary-size"),
				Prompt:      c.String("prompt"),
			})
		}))
}

func keywordsCommand() *cli.Command {
	defaults := keywords.DefaultConfig()
	return processorCommand("keywords", "Extract keywords from text documents",
		withFlags(modelFlags(), []cli.Flag{
			&cli.IntFlag{Name: "top-n", Usage: "Keywords kept", EnvVars: []string{"TOP_N"}, Value: defaults.TopN},
			&cli.IntFlag{Name: "max-words", Usage: "Maximum words per keyphrase", EnvVars: []string{"MAX_WORDS"}, Value: defaults.MaxWords},
			&cli.BoolFlag{Name: "use-max-sum", Usage: "Select with max sum distance", EnvVars: []string{"USE_MAX_SUM"}, Value: defaults.UseMaxSum},
			&cli.IntFlag{Name: "candidates", Usage: "Max sum candidate pool", EnvVars: []string{"NR_CANDIDATES"}, Value: defaults.Candidates},
			&cli.BoolFlag{Name: "use-mmr", Usage: "Select with maximal marginal relevance", EnvVars: []string{"USE_MMR"}},
			&cli.Float64Flag{Name: "diversity", Usage: "MMR diversity between 0 and 1", EnvVars: []string{"DIVERSITY"}, Value: defaults.Diversity},
		}),
		withProvider(func(c *cli.Context, env *processors.Env, provider ai.Provider) (middleware.Processor, error) {
			config := keywords.DefaultConfig()
			config.TopN = c.Int("top-n")
			config.MaxWords = c.Int("max-words")
			config.UseMaxSum = c.Bool("use-max-sum")
			config.Candidates = c.Int("candidates")
			config.UseMMR = c.Bool("use-mmr")
			config.Diversity = c.Float64("diversity")
			return keywords.New(env, provider.Embedder(), config)
		}))
}

func textsplitCommand() *cli.Command {
	defaults := textsplit.DefaultConfig()
	return processorCommand("textsplit", "Split text documents into chunks",
		[]cli.Flag{
			&cli.IntFlag{Name: "chunk-size", Usage: "Chunk size in runes", EnvVars: []string{"CHUNK_SIZE"}, Value: defaults.ChunkSize},
			&cli.IntFlag{Name: "chunk-overlap", Usage: "Overlap between chunks in runes", EnvVars: []string{"CHUNK_OVERLAP"}, Value: defaults.ChunkOverlap},
		},
		plain(func(c *cli.Context, env *processors.Env) (middleware.Processor, error) {
			config := textsplit.DefaultConfig()
			config.ChunkSize = c.Int("chunk-size")
			config.ChunkOverlap = c.Int("chunk-overlap")
			return textsplit.New(env, config)
		}))
}

func pdftextCommand() *cli.Command {
	return processorCommand("pdftext", "Extract text from PDF documents",
		[]cli.Flag{
			&cli.StringFlag{Name: "segmentation", Usage: "Output granularity (document, page)", EnvVars: []string{"SEGMENTATION"}, Value: string(pdftext.SegmentDocument)},
			&cli.StringFlag{Name: "output", Usage: "Output type (text, pdf); pdf requires page segmentation", EnvVars: []string{"OUTPUT_TYPE"}, Value: string(pdftext.OutputText)},
			&cli.BoolFlag{Name: "layout", Usage: "Count images and tables into attrs.layout", EnvVars: []string{"LAYOUT_EXTRACTION"}},
		},
		plain(func(c *cli.Context, env *processors.Env) (middleware.Processor, error) {
			segmentation, err := pdftext.ParseSegmentation(c.String("segmentation"))
			if err != nil {
				return nil, err
			}
			output, err := pdftext.ParseOutputType(c.String("output"))
			if err != nil {
				return nil, err
			}
			return pdftext.New(env, pdftext.Config{
				Segmentation: segmentation,
				Output:       output,
				Layout:       c.Bool("layout"),
			})
		}))
}

func markdownCommand() *cli.Command {
	return processorCommand("markdown", "Convert markdown, HTML and Word documents",
		[]cli.Flag{
			&cli.StringSliceFlag{Name: "conversion", Usage: "Mapping such as markdown=html,plain or docx=markdown", EnvVars: []string{"CONVERSION_MAPPING"}},
		},
		plain(func(c *cli.Context, env *processors.Env) (middleware.Processor, error) {
			mapping, err := markdown.ParseMapping(c.StringSlice("conversion"))
			if err != nil {
				return nil, err
			}
			return markdown.New(env, mapping)
		}))
}

func feedCommand() *cli.Command {
	return processorCommand("feed", "Emit one event per syndication feed item", nil,
		plain(func(_ *cli.Context, env *processors.Env) (middleware.Processor, error) {
			return feed.New(env)
		}))
}

func articleCommand() *cli.Command {
	return processorCommand("article", "Extract the main article text of HTML documents", nil,
		plain(func(_ *cli.Context, env *processors.Env) (middleware.Processor, error) {
			return article.New(env)
		}))
}

func imagehashCommand() *cli.Command {
	return processorCommand("imagehash", "Compute perceptual hashes of images",
		[]cli.Flag{
			&cli.BoolFlag{Name: "average", Usage: "Compute the average hash", EnvVars: []string{"AVERAGE_HASHING"}, Value: true},
			&cli.BoolFlag{Name: "perceptual", Usage: "Compute the perceptual hash", EnvVars: []string{"PERCEPTUAL_HASHING"}, Value: true},
			&cli.BoolFlag{Name: "difference", Usage: "Compute the difference hash", EnvVars: []string{"DIFFERENCE_HASHING"}, Value: true},
		},
		plain(func(c *cli.Context, env *processors.Env) (middleware.Processor, error) {
			return imagehash.New(env, imagehash.Config{
				Average:    c.Bool("average"),
				Perceptual: c.Bool("perceptual"),
				Difference: c.Bool("difference"),
			})
		}))
}

func laplacianCommand() *cli.Command {
	return processorCommand("laplacian", "Measure image sharpness with the Laplacian variance",
		[]cli.Flag{
			&cli.IntFlag{Name: "kernel-size", Usage: "Laplacian kernel size (1, 3)", EnvVars: []string{"KERNEL_SIZE"}, Value: 3},
		},
		plain(func(c *cli.Context, env *processors.Env) (middleware.Processor, error) {
			return laplacian.New(env, c.Int("kernel-size"))
		}))
}

func layersCommand() *cli.Command {
	return processorCommand("layers", "Pixelate or highlight detected image regions",
		[]cli.Flag{
			&cli.StringFlag{Name: "filters", Usage: "JSON list of filters", EnvVars: []string{"FILTERS"}, Required: true},
		},
		plain(func(c *cli.Context, env *processors.Env) (middleware.Processor, error) {
			filters, err := layers.ParseFilters(c.String("filters"))
			if err != nil {
				return nil, err
			}
			return layers.New(env, filters)
		}))
}

func mediainfoCommand() *cli.Command {
	return processorCommand("mediainfo", "Extract video and audio track metadata",
		[]cli.Flag{
			&cli.StringFlag{Name: "ffprobe", Usage: "Path to the ffprobe executable", EnvVars: []string{"FFPROBE_PATH"}},
		},
		plain(func(c *cli.Context, env *processors.Env) (middleware.Processor, error) {
			return mediainfo.New(env, mediainfo.FFProbe{Path: c.String("ffprobe")})
		}))
}

func transcribeCommand() *cli.Command {
	return processorCommand("transcribe", "Transcribe audio and video documents",
		withFlags(speechFlags(), []cli.Flag{
			&cli.StringFlag{Name: "output-format", Usage: "Transcript format (vtt, srt, json, text)", EnvVars: []string{"OUTPUT_FORMAT"}, Value: "vtt"},
			&cli.StringFlag{Name: "language", Usage: "ISO-639-1 language hint", EnvVars: []string{"LANGUAGE"}},
			&cli.StringFlag{Name: "prompt", Usage: "Prompt guiding the transcription", EnvVars: []string{"PROMPT"}},
		}),
		plain(func(c *cli.Context, env *processors.Env) (middleware.Processor, error) {
			format, err := ai.ParseTranscriptFormat(c.String("output-format"))
			if err != nil {
				return nil, err
			}
			client, err := newSpeechClient(c)
			if err != nil {
				return nil, err
			}
			return transcribe.New(env, client, transcribe.Config{
				Format:   format,
				Language: c.String("language"),
				Prompt:   c.String("prompt"),
			})
		}))
}

func synthesizeCommand() *cli.Command {
	return processorCommand("synthesize", "Convert text documents into speech",
		withFlags(speechFlags(), []cli.Flag{
			&cli.StringFlag{Name: "language-override", Usage: "Language used to select a voice", EnvVars: []string{"LANGUAGE_OVERRIDE"}},
			&cli.StringFlag{Name: "voice-mapping", Usage: "JSON object of language to voice lists", EnvVars: []string{"VOICE_MAPPING"}},
			&cli.StringFlag{Name: "voice", Usage: "Voice used for unmapped languages", EnvVars: []string{"DEFAULT_VOICE"}, Value: "alloy"},
			&cli.StringFlag{Name: "format", Usage: "Audio format (mp3, opus, aac, flac, wav, pcm)", EnvVars: []string{"AUDIO_FORMAT"}, Value: "mp3"},
			&cli.Float64Flag{Name: "speed", Usage: "Speech speed between 0.25 and 4", EnvVars: []string{"SPEED"}, Value: 1},
		}),
		plain(func(c *cli.Context, env *processors.Env) (middleware.Processor, error) {
			format, err := ai.ParseAudioFormat(c.String("format"))
			if err != nil {
				return nil, err
			}
			voices, err := synthesize.ParseVoiceMapping(c.String("voice-mapping"))
			if err != nil {
				return nil, err
			}
			client, err := newSpeechClient(c)
			if err != nil {
				return nil, err
			}
			return synthesize.New(env, client, synthesize.Config{
				LanguageOverride: c.String("language-override"),
				VoiceMapping:     voices,
				DefaultVoice:     c.String("voice"),
				Format:           format,
				Speed:            c.Float64("speed"),
			})
		}))
}
