// Package interview orchestrates the interview lifecycle: resume ingestion,
// question generation, per-turn chat with the model and the terminal
// hiring decision. The collaborators (model, embedder, speech, storage)
// stay behind small interfaces so turns can be tested without network.
package interview

import (
	"context"
	"fmt"
	"strings"
	"time"

	_ "embed"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"

	"github.com/Subhodip-Mishra/Deephireai-1/internal/decision"
	"github.com/Subhodip-Mishra/Deephireai-1/internal/logger"
	"github.com/Subhodip-Mishra/Deephireai-1/internal/resume"
	"github.com/Subhodip-Mishra/Deephireai-1/internal/store"
)

//go:embed prompts/interviewer.md
var interviewerPrompt string

//go:embed prompts/voice_protocol.md
var voiceProtocol string

//go:embed prompts/questions.md
var questionsTemplate string

//go:embed prompts/final_decision.md
var finalDecisionPrompt string

const (
	// contextQuery seeds the similarity search that selects resume chunks
	// for the model's context window.
	contextQuery = "summary"
	contextTopK  = 5

	greeting = "Hello! I'm excited to conduct your interview today. " +
		"Let's get started with a simple question to build rapport."

	noHistoryReasons  = "No conversation history found to evaluate."
	noHistoryMessage  = "No conversation history found for this resume ID."
	incompleteReasons = "Unable to evaluate due to incomplete conversation data."

	embedBatchSize = 16
	embedWorkers   = 4

	timestampLayout = "03:04:05 PM"
)

type Conversationalist interface {
	Converse(ctx context.Context, system string, history []*genai.Content, message string) (string, error)
}

type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

type Speaker interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Store is the persistence surface the service needs: resumes with their
// embedded chunks, plus ordered conversation history per thread.
type Store interface {
	CreateResume(ctx context.Context, filename string, pageCount int, text string) (*store.Resume, error)
	GetResume(ctx context.Context, id string) (*store.Resume, error)
	InsertChunks(ctx context.Context, resumeID string, chunks []store.Chunk) error
	SearchChunks(ctx context.Context, resumeID string, query []float32, k int) ([]store.Chunk, error)
	AppendMessage(ctx context.Context, threadID, role, content string, meta store.MessageMeta) (*store.Message, error)
	Messages(ctx context.Context, threadID string) ([]store.Message, error)
}

// AudioStore persists synthesized clips and hands back ids for /audio URLs.
type AudioStore interface {
	Put(data []byte) (string, error)
}

type Deps struct {
	Model       Conversationalist
	Embedder    Embedder
	Transcriber Transcriber
	Speaker     Speaker
	Store       Store
	Audio       AudioStore
	Logger      *zap.Logger
}

type Service struct {
	model    Conversationalist
	embedder Embedder
	stt      Transcriber
	tts      Speaker
	store    Store
	audio    AudioStore
	parser   *decision.Parser
	splitter resume.Splitter
	logger   *zap.Logger
}

func NewService(deps Deps) *Service {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Service{
		model:    deps.Model,
		embedder: deps.Embedder,
		stt:      deps.Transcriber,
		tts:      deps.Speaker,
		store:    deps.Store,
		audio:    deps.Audio,
		parser:   decision.NewParser(decision.DefaultConfig(), nil, deps.Logger),
		splitter: resume.NewSplitter(),
		logger:   deps.Logger,
	}
}

// Upload is the result of resume ingestion.
type Upload struct {
	ResumeID  string `json:"resume_id"`
	PageCount int    `json:"page_count"`
	Chunks    int    `json:"chunks"`
}

// UploadResume ingests a resume file, splits it into chunks, embeds them
// and persists everything under a fresh resume id.
func (s *Service) UploadResume(ctx context.Context, filename string, data []byte) (*Upload, error) {
	doc, err := resume.Ingest(filename, data)
	if err != nil {
		return nil, err
	}

	pieces := s.splitter.Split(doc.Text)
	vectors, err := s.embedAll(ctx, pieces)
	if err != nil {
		return nil, err
	}

	rec, err := s.store.CreateResume(ctx, doc.Filename, doc.PageCount, doc.Text)
	if err != nil {
		return nil, err
	}

	chunks := make([]store.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = store.Chunk{Seq: i, Content: piece, Embedding: vectors[i]}
	}
	if err := s.store.InsertChunks(ctx, rec.ID, chunks); err != nil {
		return nil, err
	}

	s.logger.Info("resume uploaded",
		zap.String("resume_id", rec.ID),
		zap.String("filename", doc.Filename),
		zap.Int("chunks", len(chunks)),
	)

	return &Upload{ResumeID: rec.ID, PageCount: doc.PageCount, Chunks: len(chunks)}, nil
}

// embedAll embeds chunk texts in bounded concurrent batches. Results keep
// chunk order.
func (s *Service) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(embedWorkers)
	for start := 0; start < len(texts); start += embedBatchSize {
		start := start
		end := min(start+embedBatchSize, len(texts))
		g.Go(func() error {
			batch, err := s.embedder.EmbedTexts(ctx, texts[start:end])
			if err != nil {
				return err
			}
			copy(vectors[start:end], batch)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "interview: embed resume chunks")
	}
	return vectors, nil
}

// Session is the response to starting an interview.
type Session struct {
	ResumeContext  string `json:"resume_context"`
	InitialMessage string `json:"initial_message"`
	AudioID        string `json:"audio_id"`
}

// StartInterview verifies the resume exists, assembles its retrieval
// context and synthesizes the spoken greeting.
func (s *Service) StartInterview(ctx context.Context, resumeID string) (*Session, error) {
	if _, err := s.store.GetResume(ctx, resumeID); err != nil {
		return nil, err
	}

	resumeText, err := s.resumeContext(ctx, resumeID)
	if err != nil {
		return nil, err
	}

	audioID, err := s.say(ctx, greeting)
	if err != nil {
		return nil, err
	}

	return &Session{ResumeContext: resumeText, InitialMessage: greeting, AudioID: audioID}, nil
}

// GenerateQuestions asks the model for 5-8 resume-specific questions.
func (s *Service) GenerateQuestions(ctx context.Context, resumeID string) (string, error) {
	resumeText, err := s.resumeContext(ctx, resumeID)
	if err != nil {
		return "", err
	}

	questions, err := s.model.Converse(ctx, "", nil, fmt.Sprintf(questionsTemplate, resumeText))
	if err != nil {
		return "", eris.Wrap(err, "interview: generate questions")
	}
	return questions, nil
}

// Turn is one completed question/answer exchange. Decision is nil unless
// the answer triggered decision extraction.
type Turn struct {
	Question string             `json:"question"`
	Answer   string             `json:"answer"`
	AudioID  string             `json:"audio_id"`
	Decision *decision.Decision `json:"decision"`
}

// ChatTurn runs one text turn of the interview.
func (s *Service) ChatTurn(ctx context.Context, resumeID, threadID, question string) (*Turn, error) {
	return s.turn(ctx, resumeID, threadID, question, "")
}

// VoiceTurn transcribes the candidate's spoken answer and then runs the
// turn with the voice interview protocol appended to the context.
func (s *Service) VoiceTurn(ctx context.Context, resumeID, threadID string, audio []byte, mimeType string) (*Turn, error) {
	question, err := s.stt.Transcribe(ctx, audio, mimeType)
	if err != nil {
		return nil, eris.Wrap(err, "interview: transcribe answer")
	}
	logger.WithSession(s.logger, resumeID, threadID).Debug("transcribed voice answer",
		zap.Int("length", len(question)),
	)
	return s.turn(ctx, resumeID, threadID, question, voiceProtocol)
}

func (s *Service) turn(ctx context.Context, resumeID, threadID, question, protocol string) (*Turn, error) {
	resumeText, err := s.resumeContext(ctx, resumeID)
	if err != nil {
		return nil, err
	}

	msgs, err := s.store.Messages(ctx, threadID)
	if err != nil {
		return nil, err
	}
	history := historyContents(msgs)

	message := fmt.Sprintf("Resume context: %s\n\nCurrent question: %s", resumeText, question)
	if protocol != "" {
		message += "\n\n" + protocol
	}

	answer, err := s.model.Converse(ctx, interviewerPrompt, history, message)
	if err != nil {
		return nil, eris.Wrap(err, "interview: chat turn")
	}

	// The model is instructed to close with a formatted decision when the
	// candidate ends the interview; when it forgets, ask for one outright.
	if isEndRequest(question) && !strings.Contains(answer, "Decision") {
		turnHistory := append(history,
			genai.NewContentFromText(question, genai.RoleUser),
			genai.NewContentFromText(answer, genai.RoleModel),
		)
		answer, err = s.model.Converse(ctx, interviewerPrompt, turnHistory, finalDecisionPrompt)
		if err != nil {
			return nil, eris.Wrap(err, "interview: request final decision")
		}
	}

	audioID, err := s.say(ctx, answer)
	if err != nil {
		return nil, err
	}

	now := time.Now().Format(timestampLayout)
	if _, err := s.store.AppendMessage(ctx, threadID, store.RoleUser, question, store.MessageMeta{Timestamp: now}); err != nil {
		return nil, err
	}
	meta := store.MessageMeta{Timestamp: now, AudioURL: "/audio/" + audioID}
	if _, err := s.store.AppendMessage(ctx, threadID, store.RoleAssistant, answer, meta); err != nil {
		return nil, err
	}

	dec := s.parser.Parse(answer, question)
	logger.WithSession(s.logger, resumeID, threadID).Debug("interview turn completed",
		zap.Int("history", len(history)),
		zap.Bool("decision", dec != nil),
	)

	return &Turn{
		Question: question,
		Answer:   answer,
		AudioID:  audioID,
		Decision: dec,
	}, nil
}

// Exchange is one question/answer pair of a recorded conversation.
type Exchange struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Timestamp string `json:"timestamp"`
	AudioURL  string `json:"audio_url"`
}

// Summary is the terminal view of an interview session. Decision is never
// nil.
type Summary struct {
	Decision     *decision.Decision `json:"decision"`
	Conversation []Exchange         `json:"conversation"`
	Message      string             `json:"message,omitempty"`
}

// Summary reconstructs the conversation for a resume and guarantees a
// terminal decision: parsed from the final assistant message when
// possible, requested from the model once when not, and manufactured as a
// not-hired fallback when the model cannot be reached either.
func (s *Service) Summary(ctx context.Context, resumeID string) (*Summary, error) {
	msgs, err := s.store.Messages(ctx, resumeID)
	if err != nil {
		return nil, err
	}

	if len(msgs) == 0 {
		s.logger.Warn("no conversation history", zap.String("resume_id", resumeID))
		return &Summary{
			Decision: &decision.Decision{
				Status:  decision.StatusNotHired,
				Reasons: noHistoryReasons,
				Scores:  decision.Scores{TechnicalDepth: 50, Communication: 50, ProblemSolving: 50, Total: 50},
			},
			Conversation: []Exchange{},
			Message:      noHistoryMessage,
		}, nil
	}

	conversation := pairExchanges(msgs)

	// The trigger is left to the text alone here: a final message without
	// a verdict token means the interview never concluded, and the model
	// is asked for an explicit decision instead of forcing a fallback.
	last := msgs[len(msgs)-1].Content
	dec := s.parser.Parse(last, "")
	if dec == nil {
		dec = s.requestDecision(ctx, conversation)
	}

	return &Summary{Decision: dec, Conversation: conversation}, nil
}

// requestDecision asks the model for an explicit verdict over the recorded
// conversation. It never fails: an unreachable model or an unparseable
// reply degrades to the not-hired fallback.
func (s *Service) requestDecision(ctx context.Context, conversation []Exchange) *decision.Decision {
	var transcript strings.Builder
	for _, qa := range conversation {
		fmt.Fprintf(&transcript, "Q: %s\nA: %s\n", qa.Question, qa.Answer)
	}
	prompt := fmt.Sprintf("Conversation:\n%s\n%s", transcript.String(), finalDecisionPrompt)

	verdict, err := s.model.Converse(ctx, interviewerPrompt, nil, prompt)
	if err != nil {
		s.logger.Error("failed to generate fallback decision", zap.Error(err))
		return s.parser.Fallback(incompleteReasons)
	}

	if dec := s.parser.Parse(verdict, decision.EndInterviewPhrase); dec != nil {
		return dec
	}
	return s.parser.Fallback(incompleteReasons)
}

// resumeContext retrieves the chunks most relevant to an interview and
// joins them into the model's resume context.
func (s *Service) resumeContext(ctx context.Context, resumeID string) (string, error) {
	vectors, err := s.embedder.EmbedTexts(ctx, []string{contextQuery})
	if err != nil {
		return "", eris.Wrap(err, "interview: embed context query")
	}

	chunks, err := s.store.SearchChunks(ctx, resumeID, vectors[0], contextTopK)
	if err != nil {
		return "", err
	}

	contents := make([]string, len(chunks))
	for i, chunk := range chunks {
		contents[i] = chunk.Content
	}
	return strings.Join(contents, "\n"), nil
}

// say synthesizes text and stores the clip, returning its id.
func (s *Service) say(ctx context.Context, text string) (string, error) {
	clip, err := s.tts.Synthesize(ctx, text)
	if err != nil {
		return "", eris.Wrap(err, "interview: synthesize speech")
	}
	id, err := s.audio.Put(clip)
	if err != nil {
		return "", err
	}
	return id, nil
}

func isEndRequest(question string) bool {
	return strings.EqualFold(strings.TrimSpace(question), decision.EndInterviewPhrase)
}

func historyContents(msgs []store.Message) []*genai.Content {
	history := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		var role genai.Role = genai.RoleUser
		if m.Role == store.RoleAssistant {
			role = genai.RoleModel
		}
		history = append(history, genai.NewContentFromText(m.Content, role))
	}
	return history
}

// pairExchanges walks the history as alternating user/assistant pairs,
// skipping pairs with blank content.
func pairExchanges(msgs []store.Message) []Exchange {
	exchanges := []Exchange{}
	for i := 0; i+1 < len(msgs); i += 2 {
		q, a := msgs[i], msgs[i+1]
		if q.Role != store.RoleUser || a.Role != store.RoleAssistant {
			continue
		}
		if strings.TrimSpace(q.Content) == "" || strings.TrimSpace(a.Content) == "" {
			continue
		}
		exchanges = append(exchanges, Exchange{
			Question:  q.Content,
			Answer:    a.Content,
			Timestamp: a.Meta.Timestamp,
			AudioURL:  a.Meta.AudioURL,
		})
	}
	return exchanges
}
