// Copyright 2026 The Till Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"strings"

	"github.com/tillworks/till/lib/tier"
)

// renderMenu formats the package menu in display order.
func renderMenu() string {
	var builder strings.Builder
	builder.WriteString("Planos disponíveis:\n")
	for entry := range tier.All() {
		fmt.Fprintf(&builder, "\n%s — %s\n%s\nComprar: !loja comprar %s\n",
			entry.Label, entry.Price, entry.Description, entry.ID)
	}
	return builder.String()
}

const helpText = `Comandos da loja:

!loja produup — mostra o menu de planos
!loja comprar <plano> — abre um carrinho para o plano
!loja comprar produto <nome> — abre um carrinho para um produto
!loja ajuda — esta mensagem

Administração:
!loja configurar <chave-pix> <sala-do-cargo> <espaço-da-categoria>
!loja criarproduto <nome> <preço> <descrição...> [url-da-imagem]
!loja listarprodutos
!loja deletarproduto <nome>
!loja enviarproduto <nome> <sala> <texto-do-botão> <link>

Dentro de um carrinho:
!loja aprovar — confirma o pagamento
!loja entregar <texto> — envia a entrega por mensagem direta
!loja fechar — encerra o carrinho`
