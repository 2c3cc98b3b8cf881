package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"moodtune/core/apiclient"
	"moodtune/core/emotion"
	"moodtune/core/player"
	"moodtune/model"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

// fallbackMood is used when the prediction service cannot be reached.
var fallbackMood = []model.Label{model.LabelFun, model.LabelMotivation}

var (
	clientServer  string
	clientProfile string

	signupName     string
	signupEmail    string
	signupPassword string
	signupAdminKey string

	songsEmotion string
	songsPage    int
	songsLimit   int
	songsAll     bool

	playOut string
)

// clientEnv bundles the API client with the local profile.
type clientEnv struct {
	api  *apiclient.Client
	prof *player.Profile
}

func newClientEnv(prof *player.Profile) *clientEnv {
	return &clientEnv{api: apiclient.New(clientServer, apiclient.WithToken(prof.Token)), prof: prof}
}

// readProfile runs fn against a snapshot of the profile. Changes are not saved.
func readProfile(fn func(*clientEnv) error) error {
	prof, err := player.NewFileStore(clientProfile).Load()
	if err != nil {
		return err
	}
	return fn(newClientEnv(prof))
}

// updateProfile runs fn with the profile locked for the whole command and
// saves it when fn succeeds.
func updateProfile(fn func(*clientEnv) error) error {
	return player.NewFileStore(clientProfile).Update(func(prof *player.Profile) error {
		return fn(newClientEnv(prof))
	})
}

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "moodtune命令行播放器",
	Long:  `登录moodtune服务器，按情绪浏览和播放歌曲，本地记录播放历史、喜欢的歌曲和主题。`,
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "注册新用户",
	RunE: func(cmd *cobra.Command, args []string) error {
		return readProfile(func(env *clientEnv) error {
			isAdmin, err := env.api.Signup(cmd.Context(), signupName, signupEmail, signupPassword, signupAdminKey)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "用户 %s 注册成功 (admin: %t)\n", signupEmail, isAdmin)
			return nil
		})
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "登录并保存令牌",
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateProfile(func(env *clientEnv) error {
			sess, err := env.api.Login(cmd.Context(), signupEmail, signupPassword)
			if err != nil {
				return err
			}
			env.prof.Token = sess.Token
			env.prof.UserEmail = signupEmail
			fmt.Fprintf(cmd.OutOrStdout(), "已登录 %s (admin: %t)\n", signupEmail, sess.IsAdmin)
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "清除保存的令牌",
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateProfile(func(env *clientEnv) error {
			env.prof.Token = ""
			env.prof.UserEmail = ""
			return nil
		})
	},
}

var songsCmd = &cobra.Command{
	Use:   "songs",
	Short: "按情绪列出歌曲",
	RunE: func(cmd *cobra.Command, args []string) error {
		return readProfile(func(env *clientEnv) error {
			out := cmd.OutOrStdout()
			ctx := cmd.Context()

			if songsAll {
				all, err := env.api.AllSongs(ctx)
				if err != nil {
					return err
				}
				printSongs(out, fromAPI(all), env.prof)
				return nil
			}

			label := model.Label(songsEmotion)
			if !label.Valid() {
				return fmt.Errorf("unknown emotion %q (valid: %s)", songsEmotion, labelNames())
			}
			page, err := env.api.SongsByEmotion(ctx, label, songsPage, songsLimit)
			if err != nil {
				if !offline(err) {
					return err
				}
				errOut := cmd.ErrOrStderr()
				fmt.Fprintln(errOut, highlight(errOut, "服务器不可用，显示内置歌曲", text.FgYellow))
				s := player.NewSession(player.SampleSongs(), &env.prof.Engagement)
				s.FilterByLabel(string(label))
				printSongs(out, s.Filtered(), env.prof)
				return nil
			}
			printSongs(out, fromAPI(page.Songs), env.prof)
			fmt.Fprintf(out, "第 %d/%d 页，共 %d 首\n", page.CurrentPage, page.TotalPages, page.TotalSongs)
			return nil
		})
	},
}

var moodCmd = &cobra.Command{
	Use:   "mood <text>",
	Short: "根据一段文字推荐歌曲",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return readProfile(func(env *clientEnv) error {
			out := cmd.OutOrStdout()
			errOut := cmd.ErrOrStderr()
			ctx := cmd.Context()

			labels, err := predictLabels(ctx, env.api, strings.Join(args, " "))
			if err != nil || len(labels) == 0 {
				fmt.Fprintln(errOut, highlight(errOut, "情绪识别失败，使用默认情绪", text.FgYellow))
				labels = fallbackMood
			}
			fmt.Fprintf(out, "识别到的情绪: %s\n", joinLabels(labels))

			songs, err := collectSongs(ctx, env.api, labels)
			if err != nil {
				if !offline(err) {
					return err
				}
				fmt.Fprintln(errOut, highlight(errOut, "服务器不可用，显示内置歌曲", text.FgYellow))
				songs = player.SampleSongs()
			}
			s := player.NewSession(songs, &env.prof.Engagement)
			s.FilterByEmotions(labels)
			printSongs(out, s.Page(), env.prof)
			return nil
		})
	},
}

var playCmd = &cobra.Command{
	Use:   "play <id>",
	Short: "播放一首歌曲并记录播放",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateProfile(func(env *clientEnv) error {
			ctx := cmd.Context()
			song, err := env.api.Song(ctx, args[0])
			if err != nil {
				return err
			}

			s := player.NewSession(fromAPI([]apiclient.Song{*song}), &env.prof.Engagement)
			runEffects(ctx, cmd, env, s, s.Play(song.ID))
			if s.State() == player.Error {
				return s.Err()
			}
			return nil
		})
	},
}

var likeCmd = &cobra.Command{
	Use:   "like <id>",
	Short: "喜欢或取消喜欢一首歌曲",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateProfile(func(env *clientEnv) error {
			s := player.NewSession(nil, &env.prof.Engagement)
			liked, effects := s.ToggleLike(args[0])
			runEffects(cmd.Context(), cmd, env, s, effects)
			if liked {
				fmt.Fprintf(cmd.OutOrStdout(), "已喜欢 %s\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "已取消喜欢 %s\n", args[0])
			}
			return nil
		})
	},
}

var themeCmd = &cobra.Command{
	Use:       "theme [light|dark|toggle]",
	Short:     "查看或切换主题",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{string(player.ThemeLight), string(player.ThemeDark), "toggle"},
	RunE: func(cmd *cobra.Command, args []string) error {
		show := func(env *clientEnv) error {
			if len(args) == 1 {
				if args[0] == "toggle" {
					env.prof.ToggleTheme()
				} else {
					env.prof.SetTheme(player.Theme(args[0]))
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), env.prof.Theme)
			return nil
		}
		if len(args) == 0 {
			return readProfile(show)
		}
		return updateProfile(show)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "显示最近播放和统计",
	RunE: func(cmd *cobra.Command, args []string) error {
		return readProfile(func(env *clientEnv) error {
			out := cmd.OutOrStdout()

			rows := make([][]string, 0, len(env.prof.RecentPlays))
			for _, p := range env.prof.RecentPlays {
				rows = append(rows, []string{p.ID, p.Title, p.Artist, p.Timestamp.Local().Format("2006-01-02 15:04")})
			}
			if len(rows) == 0 {
				fmt.Fprintln(out, "还没有播放记录")
			} else {
				fmt.Fprintln(out, renderTable([]string{"ID", "Title", "Artist", "Played"}, rows, nil))
			}

			st := env.prof.Stats()
			fmt.Fprintln(out, renderTable(
				[]string{"Plays", "Likes", "Minutes"},
				[][]string{{strconv.Itoa(st.Plays), strconv.Itoa(st.Likes), strconv.Itoa(st.Minutes)}},
				[]columnAlignment{alignRight, alignRight, alignRight},
			))
			return nil
		})
	},
}

// predictLabels asks the server for the mood of text and keeps the known labels.
func predictLabels(ctx context.Context, api *apiclient.Client, text string) ([]model.Label, error) {
	raw, err := api.PredictEmotion(ctx, text)
	if err != nil {
		return nil, err
	}
	return emotion.Labels(raw)
}

// runEffects performs the side effects a session transition asks for.
func runEffects(ctx context.Context, cmd *cobra.Command, env *clientEnv, s *player.Session, effects []player.Effect) {
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	for len(effects) > 0 {
		eff := effects[0]
		effects = effects[1:]
		switch eff.Kind {
		case player.StreamAudio:
			media, err := env.api.Audio(ctx, eff.SongID)
			if err != nil {
				s.Failed(err)
				continue
			}
			if playOut != "" {
				if err := os.WriteFile(playOut, media.Data, 0o644); err != nil {
					s.Failed(err)
					continue
				}
			}
			cur, _ := s.Current()
			fmt.Fprintf(out, "▶ %s - %s (%s, %s)\n", cur.Title, cur.Artist, media.ContentType, formatBytes(int64(len(media.Data))))
			effects = append(effects, s.Started(time.Now())...)
		case player.CountPlay:
			if n, err := env.api.Play(ctx, eff.SongID); err == nil {
				fmt.Fprintf(out, "播放次数: %d\n", n)
			} else {
				fmt.Fprintf(errOut, "记录播放失败: %v\n", err)
			}
		case player.CountLike:
			if n, err := env.api.Like(ctx, eff.SongID); err == nil {
				fmt.Fprintf(out, "喜欢次数: %d\n", n)
			} else {
				fmt.Fprintf(errOut, "记录喜欢失败: %v\n", err)
			}
		}
	}
}

// collectSongs merges the first page of each label, keeping first-seen order.
func collectSongs(ctx context.Context, api *apiclient.Client, labels []model.Label) ([]player.Song, error) {
	seen := make(map[string]struct{})
	var songs []player.Song
	for _, l := range labels {
		page, err := api.SongsByEmotion(ctx, l, 1, player.PageSize)
		if err != nil {
			return nil, err
		}
		for _, s := range fromAPI(page.Songs) {
			if _, ok := seen[s.ID]; ok {
				continue
			}
			seen[s.ID] = struct{}{}
			songs = append(songs, s)
		}
	}
	return songs, nil
}

func fromAPI(in []apiclient.Song) []player.Song {
	out := make([]player.Song, 0, len(in))
	for _, s := range in {
		out = append(out, player.Song{ID: s.ID, Title: s.Title, Artist: s.Artist, Labels: s.Labels, Duration: s.Duration})
	}
	return out
}

func printSongs(w io.Writer, songs []player.Song, prof *player.Profile) {
	if len(songs) == 0 {
		fmt.Fprintln(w, "没有找到歌曲")
		return
	}
	rows := make([][]string, 0, len(songs))
	for _, s := range songs {
		liked := ""
		if prof.IsLiked(s.ID) {
			liked = highlight(w, "♥", text.FgRed)
		}
		rows = append(rows, []string{s.ID, s.Title, s.Artist, joinLabels(s.Labels), formatDuration(s.Duration), liked})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"ID", "Title", "Artist", "Labels", "Length", ""},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
}

// offline reports whether err came from the transport rather than the API.
func offline(err error) bool {
	var apiErr *apiclient.Error
	return !errors.As(err, &apiErr)
}

func joinLabels(labels []model.Label) string {
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = string(l)
	}
	return strings.Join(parts, ", ")
}

func labelNames() string {
	return joinLabels(model.AllLabels)
}

func defaultServer() string {
	if v := os.Getenv("MOODTUNE_SERVER"); v != "" {
		return v
	}
	return "http://localhost:3000"
}

func init() {
	rootCmd.AddCommand(clientCmd)
	clientCmd.AddCommand(signupCmd, loginCmd, logoutCmd, songsCmd, moodCmd, playCmd, likeCmd, themeCmd, historyCmd)

	clientCmd.PersistentFlags().StringVar(&clientServer, "server", defaultServer(), "moodtune服务器地址")
	clientCmd.PersistentFlags().StringVar(&clientProfile, "profile", player.DefaultPath(), "本地配置文件路径")

	for _, c := range []*cobra.Command{signupCmd, loginCmd} {
		c.Flags().StringVarP(&signupEmail, "email", "e", "", "邮箱")
		c.Flags().StringVarP(&signupPassword, "password", "p", "", "密码")
		c.MarkFlagRequired("email")
		c.MarkFlagRequired("password")
	}
	signupCmd.Flags().StringVarP(&signupName, "name", "n", "", "用户名")
	signupCmd.Flags().StringVar(&signupAdminKey, "admin-key", "", "管理员密钥")
	signupCmd.MarkFlagRequired("name")

	songsCmd.Flags().StringVar(&songsEmotion, "emotion", string(model.LabelGeneral), "情绪标签: "+labelNames())
	songsCmd.Flags().IntVar(&songsPage, "page", 1, "页码")
	songsCmd.Flags().IntVar(&songsLimit, "limit", 10, "每页数量")
	songsCmd.Flags().BoolVar(&songsAll, "all", false, "列出全部歌曲 (管理员)")

	playCmd.Flags().StringVarP(&playOut, "out", "o", "", "把音频保存到文件")
}
