// Copyright 2026 The Till Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tillworks/till/lib/authorization"
	"github.com/tillworks/till/lib/cart"
	"github.com/tillworks/till/lib/ref"
	"github.com/tillworks/till/lib/storedb"
	"github.com/tillworks/till/lib/tier"
	"github.com/tillworks/till/messaging"
)

// commandPrefix marks storefront commands in chat. The word after it
// selects the operation.
const commandPrefix = "!loja"

// serverAdminLevel is the power level treated as server admin in the
// storefront room.
const serverAdminLevel = 100

// dispatchCommand parses and executes one !loja command. Every failure
// is answered with an m.notice in the room the command came from;
// nothing propagates far enough to kill the sync loop.
func (sf *Storefront) dispatchCommand(ctx context.Context, roomID ref.RoomID, sender ref.UserID, body string) {
	fields := strings.Fields(body)
	if len(fields) == 0 || fields[0] != commandPrefix {
		return
	}
	if len(fields) == 1 {
		sf.notice(ctx, roomID, "Uso: !loja <comando>. Envie !loja ajuda para a lista de comandos.")
		return
	}
	command, args := fields[1], fields[2:]

	sf.logger.Info("command received",
		"command", command,
		"sender", sender,
		"room_id", roomID,
	)

	var err error
	switch command {
	case "configurar":
		err = sf.cmdConfigure(ctx, roomID, sender, args)
	case "criarproduto":
		err = sf.cmdCreateProduct(ctx, roomID, sender, args)
	case "listarprodutos":
		err = sf.cmdListProducts(ctx, roomID, sender)
	case "deletarproduto":
		err = sf.cmdDeleteProduct(ctx, roomID, sender, args)
	case "enviarproduto":
		err = sf.cmdAdvertiseProduct(ctx, roomID, sender, args)
	case "produup":
		err = sf.cmdMenu(ctx, roomID)
	case "comprar":
		err = sf.cmdBuy(ctx, roomID, sender, args)
	case "aprovar":
		err = sf.cmdApprove(ctx, roomID, sender)
	case "fechar":
		err = sf.cmdClose(ctx, roomID, sender)
	case "entregar":
		err = sf.cmdDeliver(ctx, roomID, sender, args)
	case "ajuda":
		err = sf.cmdHelp(ctx, roomID)
	default:
		sf.notice(ctx, roomID, fmt.Sprintf("Comando desconhecido: %q. Envie !loja ajuda.", command))
		return
	}

	if err != nil {
		sf.logger.Warn("command failed",
			"command", command,
			"sender", sender,
			"error", err,
		)
		sf.notice(ctx, roomID, userMessage(err))
	}
}

// userMessage translates an internal error into the notice shown in
// the room.
func userMessage(err error) string {
	var deliveryErr *cart.DeliveryError
	switch {
	case errors.Is(err, errUsage):
		return err.Error()
	case errors.Is(err, cart.ErrConfigIncomplete):
		return "A loja ainda não foi configurada. Um administrador precisa executar !loja configurar primeiro."
	case errors.Is(err, cart.ErrPermission):
		return "Você não tem permissão para esse comando."
	case errors.Is(err, cart.ErrInvalidTransition):
		return "Esse carrinho não permite essa operação no estado atual."
	case errors.Is(err, cart.ErrUnknownCart):
		return "Esse comando só funciona dentro de um carrinho."
	case errors.Is(err, storedb.ErrDuplicateName):
		return "Já existe um produto com esse nome."
	case errors.Is(err, storedb.ErrNotFound):
		return "Produto não encontrado."
	case errors.As(err, &deliveryErr):
		return "Falha na entrega. O carrinho continua como estava; tente novamente."
	default:
		return "O comando falhou. Tente novamente em instantes."
	}
}

// errUsage wraps argument mistakes; the message is shown verbatim.
var errUsage = errors.New("uso inválido")

func usage(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

// notice posts an m.notice reply. Failures are logged and swallowed —
// there is nowhere else to report them.
func (sf *Storefront) notice(ctx context.Context, roomID ref.RoomID, text string) {
	if _, err := sf.session.SendMessage(ctx, roomID, messaging.NewNotice(text)); err != nil {
		sf.logger.Error("posting notice", "room_id", roomID, "error", err)
	}
}

// actorFor assembles the authorization view of a sender: their power
// level in the storefront room and their membership of the configured
// admin role room.
func (sf *Storefront) actorFor(ctx context.Context, sender ref.UserID) authorization.Actor {
	actor := authorization.Actor{
		UserID:    sender,
		RoleRooms: make(map[ref.RoomID]bool),
	}

	raw, err := sf.session.GetStateEvent(ctx, sf.storeRoom, "m.room.power_levels", "")
	if err != nil {
		sf.logger.Error("fetching storefront power levels", "error", err)
	} else {
		var levels messaging.PowerLevelsContent
		if err := json.Unmarshal(raw, &levels); err != nil {
			sf.logger.Error("parsing storefront power levels", "error", err)
		} else if levels.Level(sender) >= serverAdminLevel {
			actor.ServerAdmin = true
		}
	}

	adminRole := sf.store.Config().AdminRole
	if !adminRole.IsZero() {
		raw, err := sf.session.GetStateEvent(ctx, adminRole, "m.room.member", sender.String())
		if err != nil {
			if !messaging.IsMatrixError(err, messaging.ErrCodeNotFound) {
				sf.logger.Error("fetching role membership", "role", adminRole, "error", err)
			}
		} else {
			var member messaging.RoomMemberContent
			if err := json.Unmarshal(raw, &member); err == nil && member.Membership == "join" {
				actor.RoleRooms[adminRole] = true
			}
		}
	}

	return actor
}

// requireAdmin gates a command on the storefront admin policy.
func (sf *Storefront) requireAdmin(ctx context.Context, sender ref.UserID) (authorization.Actor, error) {
	actor := sf.actorFor(ctx, sender)
	if !authorization.Allowed(actor, sf.store.Config().AdminRole) {
		return actor, fmt.Errorf("%w: %s", cart.ErrPermission, sender)
	}
	return actor, nil
}

// resolveRoom accepts a room ID or a room alias.
func (sf *Storefront) resolveRoom(ctx context.Context, raw string) (ref.RoomID, error) {
	if strings.HasPrefix(raw, "#") {
		alias, err := ref.ParseRoomAlias(raw)
		if err != nil {
			return ref.RoomID{}, err
		}
		return sf.session.ResolveAlias(ctx, alias)
	}
	return ref.ParseRoomID(raw)
}

// cmdConfigure writes all three tenant settings atomically:
// !loja configurar <pix> <sala-do-cargo> <espaço-da-categoria>
func (sf *Storefront) cmdConfigure(ctx context.Context, roomID ref.RoomID, sender ref.UserID, args []string) error {
	if _, err := sf.requireAdmin(ctx, sender); err != nil {
		return err
	}
	if len(args) != 3 {
		return usage("!loja configurar <chave-pix> <sala-do-cargo> <espaço-da-categoria>")
	}

	pix := args[0]
	adminRole, err := sf.resolveRoom(ctx, args[1])
	if err != nil {
		return usage("sala do cargo inválida: %v", err)
	}
	category, err := sf.resolveRoom(ctx, args[2])
	if err != nil {
		return usage("espaço da categoria inválido: %v", err)
	}

	if err := sf.store.SetConfig(pix, adminRole, category); err != nil {
		return err
	}
	sf.notice(ctx, roomID, "Loja configurada. Carrinhos serão abertos sob a categoria definida.")
	return nil
}

// cmdCreateProduct adds a product to the catalog:
// !loja criarproduto <nome> <preco> <descrição...> [url-da-imagem]
func (sf *Storefront) cmdCreateProduct(ctx context.Context, roomID ref.RoomID, sender ref.UserID, args []string) error {
	if _, err := sf.requireAdmin(ctx, sender); err != nil {
		return err
	}
	if len(args) < 3 {
		return usage("!loja criarproduto <nome> <preço> <descrição...> [url-da-imagem]")
	}

	name, price := args[0], args[1]
	rest := args[2:]

	imageURL := ""
	if last := rest[len(rest)-1]; isImageURL(last) {
		imageURL = last
		rest = rest[:len(rest)-1]
	}
	if len(rest) == 0 {
		return usage("!loja criarproduto <nome> <preço> <descrição...> [url-da-imagem]")
	}

	product := storedb.Product{
		Name:        name,
		Price:       price,
		Description: strings.Join(rest, " "),
		ImageURL:    imageURL,
	}
	if err := sf.store.CreateProduct(product); err != nil {
		return err
	}
	sf.notice(ctx, roomID, fmt.Sprintf("Produto %q criado (%s).", name, price))
	return nil
}

func isImageURL(raw string) bool {
	return strings.HasPrefix(raw, "http://") ||
		strings.HasPrefix(raw, "https://") ||
		strings.HasPrefix(raw, "mxc://")
}

// cmdListProducts posts the catalog in insertion order.
func (sf *Storefront) cmdListProducts(ctx context.Context, roomID ref.RoomID, sender ref.UserID) error {
	if _, err := sf.requireAdmin(ctx, sender); err != nil {
		return err
	}

	if sf.store.Len() == 0 {
		sf.notice(ctx, roomID, "Catálogo vazio.")
		return nil
	}

	var builder strings.Builder
	builder.WriteString("Catálogo:\n")
	for product := range sf.store.Products() {
		fmt.Fprintf(&builder, "• %s — %s: %s\n", product.Name, product.Price, product.Description)
	}
	sf.notice(ctx, roomID, builder.String())
	return nil
}

// cmdDeleteProduct removes a product: !loja deletarproduto <nome>
func (sf *Storefront) cmdDeleteProduct(ctx context.Context, roomID ref.RoomID, sender ref.UserID, args []string) error {
	if _, err := sf.requireAdmin(ctx, sender); err != nil {
		return err
	}
	if len(args) != 1 {
		return usage("!loja deletarproduto <nome>")
	}

	if err := sf.store.DeleteProduct(args[0]); err != nil {
		return err
	}
	sf.notice(ctx, roomID, fmt.Sprintf("Produto %q removido.", args[0]))
	return nil
}

// cmdAdvertiseProduct posts a product advertisement into another room:
// !loja enviarproduto <nome> <sala> <texto-do-botão> <link>
func (sf *Storefront) cmdAdvertiseProduct(ctx context.Context, roomID ref.RoomID, sender ref.UserID, args []string) error {
	if _, err := sf.requireAdmin(ctx, sender); err != nil {
		return err
	}
	if len(args) != 4 {
		return usage("!loja enviarproduto <nome> <sala> <texto-do-botão> <link>")
	}

	product, err := sf.store.Product(args[0])
	if err != nil {
		return err
	}
	target, err := sf.resolveRoom(ctx, args[1])
	if err != nil {
		return usage("sala inválida: %v", err)
	}
	buttonText, link := args[2], args[3]

	body := fmt.Sprintf("%s — %s\n%s\n\n%s: %s", product.Name, product.Price, product.Description, buttonText, link)
	if product.ImageURL != "" {
		body += "\n" + product.ImageURL
	}
	if _, err := sf.session.SendMessage(ctx, target, messaging.NewNotice(body)); err != nil {
		return fmt.Errorf("posting advertisement: %w", err)
	}
	sf.notice(ctx, roomID, fmt.Sprintf("Produto %q anunciado.", product.Name))
	return nil
}

// cmdMenu posts the package menu. Open to any member.
func (sf *Storefront) cmdMenu(ctx context.Context, roomID ref.RoomID) error {
	sf.notice(ctx, roomID, renderMenu())
	return nil
}

// cmdBuy opens a cart for a package tier or a catalog product:
// !loja comprar <tier> | !loja comprar produto <nome>
func (sf *Storefront) cmdBuy(ctx context.Context, roomID ref.RoomID, sender ref.UserID, args []string) error {
	if len(args) == 0 {
		return usage("!loja comprar <plano> ou !loja comprar produto <nome>")
	}

	var subject, price string
	if args[0] == "produto" {
		if len(args) != 2 {
			return usage("!loja comprar produto <nome>")
		}
		product, err := sf.store.Product(args[1])
		if err != nil {
			return err
		}
		subject, price = product.Name, product.Price
	} else {
		entry, ok := tier.ByID(args[0])
		if !ok {
			return usage("plano desconhecido: %q. Envie !loja produup para ver o menu.", args[0])
		}
		subject, price = entry.Label, entry.Price
	}

	opened, err := sf.carts.Open(ctx, sender, subject, price)
	if err != nil {
		return err
	}
	sf.notice(ctx, roomID, fmt.Sprintf("Carrinho aberto para %s. Confira o convite para a sala privada.", sender))
	sf.logger.Info("cart room announced", "room_id", opened.RoomID)
	return nil
}

// cmdApprove confirms payment. Must be sent inside the cart room.
func (sf *Storefront) cmdApprove(ctx context.Context, roomID ref.RoomID, sender ref.UserID) error {
	actor := sf.actorFor(ctx, sender)
	return sf.carts.Approve(ctx, actor, roomID)
}

// cmdClose terminates the cart. Must be sent inside the cart room.
func (sf *Storefront) cmdClose(ctx context.Context, roomID ref.RoomID, sender ref.UserID) error {
	actor := sf.actorFor(ctx, sender)
	return sf.carts.Close(ctx, actor, roomID)
}

// cmdDeliver sends content to the cart's customer over a direct room:
// !loja entregar <texto...>
func (sf *Storefront) cmdDeliver(ctx context.Context, roomID ref.RoomID, sender ref.UserID, args []string) error {
	if len(args) == 0 {
		return usage("!loja entregar <texto da entrega>")
	}
	actor := sf.actorFor(ctx, sender)
	if err := sf.carts.Deliver(ctx, actor, roomID, strings.Join(args, " ")); err != nil {
		return err
	}
	sf.notice(ctx, roomID, "Entrega enviada por mensagem direta.")
	return nil
}

// cmdHelp posts the command list.
func (sf *Storefront) cmdHelp(ctx context.Context, roomID ref.RoomID) error {
	sf.notice(ctx, roomID, helpText)
	return nil
}
