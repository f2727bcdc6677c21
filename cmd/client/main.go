package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/palemoky/crazy-eights/internal/client"
	"github.com/palemoky/crazy-eights/internal/network/protocol"
)

var suitNames = []string{"♥", "♦", "♣", "♠"}

func cardString(c protocol.CardInfo) string {
	if !c.Known {
		return fmt.Sprintf("[#%d]", c.ID)
	}
	rank := map[int]string{11: "J", 12: "Q", 13: "K", 14: "A"}[c.Rank]
	if rank == "" {
		rank = strconv.Itoa(c.Rank)
	}
	return fmt.Sprintf("%s%s(#%d)", suitNames[c.Suit], rank, c.ID)
}

// debugClient 调试客户端：连接服务器，维护本地投影，
// 把标准输入的命令转成协议消息发出。
type debugClient struct {
	conn       *websocket.Conn
	playerID   string
	token      string
	projection *client.Projection
}

func (dc *debugClient) send(msg *protocol.Message) {
	data, err := msg.Encode()
	if err != nil {
		log.Printf("编码失败: %v", err)
		return
	}
	if err := dc.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("发送失败: %v", err)
	}
}

func (dc *debugClient) printHand() {
	if dc.projection == nil {
		return
	}
	parts := make([]string, 0, len(dc.projection.Hand))
	for _, c := range dc.projection.SortedHand() {
		parts = append(parts, cardString(c))
	}
	fmt.Printf("手牌: %s\n", strings.Join(parts, " "))
}

// readLoop 持续接收服务器消息并更新投影
func (dc *debugClient) readLoop() {
	for {
		_, data, err := dc.conn.ReadMessage()
		if err != nil {
			log.Printf("连接断开: %v", err)
			os.Exit(0)
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			log.Printf("解码失败: %v", err)
			continue
		}

		dc.handleMessage(msg)
	}
}

func (dc *debugClient) handleMessage(msg *protocol.Message) {
	switch msg.Type {
	case protocol.MsgConnected:
		payload, err := protocol.ParsePayload[protocol.ConnectedPayload](msg)
		if err != nil {
			return
		}
		dc.playerID = payload.PlayerID
		dc.token = payload.ReconnectToken
		dc.projection = client.NewProjection(payload.PlayerID)
		fmt.Printf("已连接，身份: %s (%s)\n", payload.PlayerName, payload.PlayerID)

	case protocol.MsgReconnected:
		payload, err := protocol.ParsePayload[protocol.ReconnectedPayload](msg)
		if err != nil {
			return
		}
		dc.playerID = payload.PlayerID
		dc.projection = client.NewProjection(payload.PlayerID)
		if payload.GameState != nil {
			dc.projection.InitFromSnapshot(payload.GameState)
		}
		fmt.Printf("重连成功，房间: %s\n", payload.RoomCode)
		dc.printHand()

	case protocol.MsgRoomCreated:
		payload, err := protocol.ParsePayload[protocol.RoomCreatedPayload](msg)
		if err != nil {
			return
		}
		fmt.Printf("房间已创建: %s\n", payload.RoomCode)

	case protocol.MsgRoomJoined, protocol.MsgMatchFound:
		payload, err := protocol.ParsePayload[protocol.RoomJoinedPayload](msg)
		if err != nil {
			return
		}
		names := make([]string, 0, len(payload.Players))
		for _, p := range payload.Players {
			names = append(names, p.Name)
		}
		fmt.Printf("进入房间 %s，玩家: %s\n", payload.RoomCode, strings.Join(names, ", "))

	case protocol.MsgRoundOver:
		if dc.projection != nil && dc.projection.Apply(msg) {
			fmt.Printf("本轮结束，胜者 %s\n", dc.projection.WinnerID)
			for _, s := range dc.projection.LastScores {
				fmt.Printf("  %s: 本轮 %d, 累计 %d\n", s.PlayerName, s.Round, s.Total)
			}
		}

	case protocol.MsgError:
		payload, err := protocol.ParsePayload[protocol.ErrorPayload](msg)
		if err != nil {
			return
		}
		fmt.Printf("错误 [%d]: %s\n", payload.Code, payload.Message)

	case protocol.MsgLeaderboard:
		payload, err := protocol.ParsePayload[protocol.LeaderboardPayload](msg)
		if err != nil {
			return
		}
		for _, e := range payload.Entries {
			fmt.Printf("  #%d %s: %d 胜\n", e.Rank, e.PlayerName, e.Wins)
		}

	default:
		if dc.projection != nil && dc.projection.Apply(msg) {
			fmt.Printf("[事件 %d] %s\n", msg.Seq, msg.Type)
			if msg.Type == protocol.MsgCardMoved {
				dc.printHand()
			}
			if msg.Type == protocol.MsgTurnChanged && dc.projection.ActivePlayerID == dc.playerID {
				fmt.Println(">>> 轮到你了")
			}
		}
	}
}

func (dc *debugClient) runCommand(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}

	switch fields[0] {
	case "create":
		dc.send(protocol.MustNewMessage(protocol.MsgCreateRoom, nil))
	case "join":
		if len(fields) < 2 {
			fmt.Println("用法: join <房间号>")
			return
		}
		dc.send(protocol.MustNewMessage(protocol.MsgJoinRoom, protocol.JoinRoomPayload{RoomCode: fields[1]}))
	case "leave":
		dc.send(protocol.MustNewMessage(protocol.MsgLeaveRoom, nil))
	case "match":
		dc.send(protocol.MustNewMessage(protocol.MsgQuickMatch, nil))
	case "start":
		dc.send(protocol.MustNewMessage(protocol.MsgStartGame, nil))
	case "next":
		dc.send(protocol.MustNewMessage(protocol.MsgNextRound, nil))
	case "draw":
		dc.send(protocol.MustNewMessage(protocol.MsgDrawCard, nil))
	case "play":
		if len(fields) < 2 {
			fmt.Println("用法: play <牌ID>")
			return
		}
		id, err := strconv.Atoi(fields[1])
		if err != nil {
			fmt.Println("牌 ID 必须是数字")
			return
		}
		dc.send(protocol.MustNewMessage(protocol.MsgPlayCard, protocol.PlayCardPayload{CardID: id}))
	case "suit":
		if len(fields) < 2 {
			fmt.Println("用法: suit <0-3>  (0=♥ 1=♦ 2=♣ 3=♠)")
			return
		}
		suit, err := strconv.Atoi(fields[1])
		if err != nil {
			fmt.Println("花色必须是 0-3")
			return
		}
		dc.send(protocol.MustNewMessage(protocol.MsgChooseSuit, protocol.ChooseSuitPayload{Suit: suit}))
	case "pass":
		dc.send(protocol.MustNewMessage(protocol.MsgPass, nil))
	case "top":
		dc.send(protocol.MustNewMessage(protocol.MsgGetLeaderboard, nil))
	case "hand":
		dc.printHand()
	case "quit":
		os.Exit(0)
	default:
		fmt.Println("命令: create | join <码> | leave | match | start | next | draw | play <ID> | suit <0-3> | pass | top | hand | quit")
	}
}

func main() {
	addr := flag.String("addr", "ws://127.0.0.1:1888/ws", "服务器地址")
	flag.Parse()

	conn, _, err := websocket.DefaultDialer.Dial(*addr, nil)
	if err != nil {
		log.Fatalf("连接失败: %v", err)
	}
	defer conn.Close()

	dc := &debugClient{conn: conn}
	go dc.readLoop()

	// 心跳
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			dc.send(protocol.MustNewMessage(protocol.MsgPing, protocol.PingPayload{
				Timestamp: time.Now().UnixMilli(),
			}))
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		dc.runCommand(scanner.Text())
	}
}
